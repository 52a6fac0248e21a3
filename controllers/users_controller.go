package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/playtube/playtube-backend/database"
	"github.com/playtube/playtube-backend/dto"
	"github.com/playtube/playtube-backend/middleware"
	"github.com/playtube/playtube-backend/models"
	"github.com/playtube/playtube-backend/utils"
)

// GET /api/v1/users/self
func GetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PATCH /api/v1/users/update-user
func UpdateAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		usersCol := database.OpenCollection("users")
		update := bson.M{"$set": bson.M{
			"fullName":  strings.TrimSpace(body.FullName),
			"email":     strings.ToLower(strings.TrimSpace(body.Email)),
			"updatedAt": time.Now().UTC(),
		}}
		if _, err := usersCol.UpdateByID(c.Request.Context(), user.ID, update); err != nil {
			if utils.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var updated models.User
		if err := usersCol.FindOne(c.Request.Context(), bson.M{"_id": user.ID}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// PATCH /api/v1/users/update-avatar
func UpdateAvatar(media *utils.MediaStorage, images *utils.FileValidator) gin.HandlerFunc {
	return updateUserImage(media, images, "avatar", "avatars", "avatarObject")
}

// PATCH /api/v1/users/update-cover-image
func UpdateCoverImage(media *utils.MediaStorage, images *utils.FileValidator) gin.HandlerFunc {
	return updateUserImage(media, images, "coverImage", "covers", "coverObject")
}

func updateUserImage(media *utils.MediaStorage, images *utils.FileValidator, field, folder, objectField string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		fh, err := c.FormFile(field)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": field + " file is required"})
			return
		}
		if err := images.Validate(fh); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		uploaded, err := media.Upload(ctx, folder, fh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error while uploading file"})
			return
		}

		oldObject := user.AvatarObject
		if field == "coverImage" {
			oldObject = user.CoverObject
		}

		usersCol := database.OpenCollection("users")
		update := bson.M{"$set": bson.M{
			field:       uploaded.PublicURL,
			objectField: uploaded.ObjectName,
			"updatedAt": time.Now().UTC(),
		}}
		if _, err := usersCol.UpdateByID(ctx, user.ID, update); err != nil {
			_ = media.Delete(ctx, uploaded.ObjectName)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Old object is orphaned once the document points at the new one.
		_ = media.Delete(ctx, oldObject)

		c.JSON(http.StatusOK, gin.H{field: uploaded.PublicURL})
	}
}

// GET /api/v1/users/c/:username
//
// Channel profile: subscriber counts and whether the requesting user is
// subscribed, computed in a single aggregation over the subscriptions
// collection.
func GetChannelProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		username := utils.NormalizeUsername(c.Param("username"))
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is missing"})
			return
		}

		viewer, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		usersCol := database.OpenCollection("users")
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"username": username}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "subscriptions",
				"localField":   "_id",
				"foreignField": "channel",
				"as":           "subscribers",
			}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "subscriptions",
				"localField":   "_id",
				"foreignField": "subscriber",
				"as":           "subscribedTo",
			}}},
			{{Key: "$addFields", Value: bson.M{
				"subscriberCount":   bson.M{"$size": "$subscribers"},
				"subscribedToCount": bson.M{"$size": "$subscribedTo"},
				"isSubscribed":      bson.M{"$in": bson.A{viewer.ID, "$subscribers.subscriber"}},
			}}},
			{{Key: "$project", Value: bson.M{
				"username":          1,
				"fullName":          1,
				"email":             1,
				"avatar":            1,
				"coverImage":        1,
				"subscriberCount":   1,
				"subscribedToCount": 1,
				"isSubscribed":      1,
			}}},
		}

		cursor, err := usersCol.Aggregate(ctx, pipeline)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		var channels []bson.M
		if err := cursor.All(ctx, &channels); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(channels) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel does not exist"})
			return
		}

		c.JSON(http.StatusOK, channels[0])
	}
}

// GET /api/v1/users/history
//
// Joins the viewer's watchHistory ids against videos, projecting each video
// with a trimmed owner snapshot.
func GetWatchHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		viewer, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		usersCol := database.OpenCollection("users")
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"_id": viewer.ID}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "videos",
				"localField":   "watchHistory",
				"foreignField": "_id",
				"as":           "watchHistory",
				"pipeline": bson.A{
					bson.M{"$lookup": bson.M{
						"from":         "users",
						"localField":   "owner",
						"foreignField": "_id",
						"as":           "owner",
						"pipeline": bson.A{
							bson.M{"$project": bson.M{
								"username": 1,
								"fullName": 1,
								"avatar":   1,
							}},
						},
					}},
					bson.M{"$addFields": bson.M{
						"owner": bson.M{"$first": "$owner"},
					}},
				},
			}}},
			{{Key: "$project", Value: bson.M{"watchHistory": 1}}},
		}

		cursor, err := usersCol.Aggregate(ctx, pipeline)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		var results []bson.M
		if err := cursor.All(ctx, &results); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(results) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		c.JSON(http.StatusOK, results[0]["watchHistory"])
	}
}
