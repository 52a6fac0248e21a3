package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/playtube/playtube-backend/database"
	"github.com/playtube/playtube-backend/dto"
	"github.com/playtube/playtube-backend/middleware"
	"github.com/playtube/playtube-backend/models"
	"github.com/playtube/playtube-backend/utils"
)

// GET /api/v1/videos
func GetVideos() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		page := utils.ParseIntDefault(c.Query("page"), 1)
		limit := utils.ParseIntDefault(c.Query("limit"), 10)
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}
		skip := int64((page - 1) * limit)

		sortBy := strings.TrimSpace(c.Query("sortBy"))
		if sortBy == "" {
			sortBy = "createdAt"
		}
		sortDir := 1
		if c.Query("sortType") == "dsc" || c.Query("sortType") == "desc" {
			sortDir = -1
		}

		filter := bson.M{"isPublished": true}
		if query := strings.TrimSpace(c.Query("query")); query != "" {
			filter["$or"] = bson.A{
				bson.M{"title": bson.M{"$regex": query, "$options": "i"}},
				bson.M{"description": bson.M{"$regex": query, "$options": "i"}},
			}
		}
		if userID := strings.TrimSpace(c.Query("userId")); userID != "" {
			ownerID, err := bson.ObjectIDFromHex(userID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
				return
			}
			filter["owner"] = ownerID
		}

		videosCol := database.OpenCollection("videos")
		findOpts := options.Find().
			SetSkip(skip).
			SetLimit(int64(limit)).
			SetSort(bson.D{{Key: sortBy, Value: sortDir}})

		cursor, err := videosCol.Find(ctx, filter, findOpts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		videos := make([]models.Video, 0)
		if err := cursor.All(ctx, &videos); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		total, err := videosCol.CountDocuments(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": videos,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// POST /api/v1/videos
func PublishVideo(media *utils.MediaStorage, videos, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var body dto.PublishVideoDTO
		if err := c.ShouldBind(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		videoFile, err := c.FormFile("videoFile")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "video file is required"})
			return
		}
		if err := videos.Validate(videoFile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		thumbFile, err := c.FormFile("thumbnail")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "thumbnail file is required"})
			return
		}
		if err := images.Validate(thumbFile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		slug := utils.GenerateSlug(body.Title)
		uploadedVideo, err := media.Upload(ctx, "videos/"+slug, videoFile)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload video"})
			return
		}
		uploadedThumb, err := media.Upload(ctx, "thumbnails/"+slug, thumbFile)
		if err != nil {
			_ = media.Delete(ctx, uploadedVideo.ObjectName)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload thumbnail"})
			return
		}

		now := time.Now().UTC()
		video := models.Video{
			ID:              bson.NewObjectID(),
			Owner:           owner.ID,
			VideoFile:       uploadedVideo.PublicURL,
			VideoObject:     uploadedVideo.ObjectName,
			Thumbnail:       uploadedThumb.PublicURL,
			ThumbnailObject: uploadedThumb.ObjectName,
			Title:           body.Title,
			Description:     body.Description,
			Duration:        body.Duration,
			IsPublished:     true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		videosCol := database.OpenCollection("videos")
		if _, err := videosCol.InsertOne(ctx, video); err != nil {
			_ = media.Delete(ctx, uploadedVideo.ObjectName, uploadedThumb.ObjectName)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, video)
	}
}

// GET /api/v1/videos/:videoId
//
// Fetching a video counts a view and appends it to the viewer's watch
// history.
func GetVideo() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		videoID, err := bson.ObjectIDFromHex(c.Param("videoId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
			return
		}

		viewer, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		videosCol := database.OpenCollection("videos")

		var video models.Video
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = videosCol.FindOneAndUpdate(ctx,
			bson.M{"_id": videoID},
			bson.M{"$inc": bson.M{"views": 1}},
			opts,
		).Decode(&video)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		usersCol := database.OpenCollection("users")
		_, _ = usersCol.UpdateByID(ctx, viewer.ID, bson.M{
			// $addToSet keeps rewatches from growing the history.
			"$addToSet": bson.M{"watchHistory": videoID},
		})

		c.JSON(http.StatusOK, video)
	}
}

// PATCH /api/v1/videos/:videoId
func UpdateVideo(media *utils.MediaStorage, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		videoID, err := bson.ObjectIDFromHex(c.Param("videoId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
			return
		}

		videosCol := database.OpenCollection("videos")

		var video models.Video
		if err := videosCol.FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		if video.Owner != owner.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the video owner"})
			return
		}

		var body dto.UpdateVideoDTO
		if err := c.ShouldBind(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Title != nil {
			set["title"] = *body.Title
		}
		if body.Description != nil {
			set["description"] = *body.Description
		}

		var oldThumbObject string
		if thumbFile, err := c.FormFile("thumbnail"); err == nil {
			if err := images.Validate(thumbFile); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			uploaded, err := media.Upload(ctx, "thumbnails/"+utils.GenerateSlug(video.Title), thumbFile)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload thumbnail"})
				return
			}
			set["thumbnail"] = uploaded.PublicURL
			set["thumbnailObject"] = uploaded.ObjectName
			oldThumbObject = video.ThumbnailObject
		}

		var updated models.Video
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = videosCol.FindOneAndUpdate(ctx, bson.M{"_id": videoID}, bson.M{"$set": set}, opts).Decode(&updated)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if oldThumbObject != "" {
			_ = media.Delete(ctx, oldThumbObject)
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DELETE /api/v1/videos/:videoId
func DeleteVideo(media *utils.MediaStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		videoID, err := bson.ObjectIDFromHex(c.Param("videoId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
			return
		}

		videosCol := database.OpenCollection("videos")

		var video models.Video
		if err := videosCol.FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		if video.Owner != owner.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the video owner"})
			return
		}

		if _, err := videosCol.DeleteOne(ctx, bson.M{"_id": videoID}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Stored media and dangling references are cleaned up best effort.
		_ = media.Delete(ctx, video.VideoObject, video.ThumbnailObject)
		commentsCol := database.OpenCollection("comments")
		_, _ = commentsCol.DeleteMany(ctx, bson.M{"video": videoID})
		playlistsCol := database.OpenCollection("playlists")
		_, _ = playlistsCol.UpdateMany(ctx, bson.M{}, bson.M{"$pull": bson.M{"videos": videoID}})

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// PATCH /api/v1/videos/:videoId/toggle
func TogglePublishStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		videoID, err := bson.ObjectIDFromHex(c.Param("videoId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
			return
		}

		videosCol := database.OpenCollection("videos")

		var video models.Video
		if err := videosCol.FindOne(ctx, bson.M{"_id": videoID}).Decode(&video); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		if video.Owner != owner.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the video owner"})
			return
		}

		var updated models.Video
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = videosCol.FindOneAndUpdate(ctx,
			bson.M{"_id": videoID},
			bson.M{"$set": bson.M{"isPublished": !video.IsPublished, "updatedAt": time.Now().UTC()}},
			opts,
		).Decode(&updated)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}
