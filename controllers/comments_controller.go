package controllers

import (
	"errors"
	"net/http"
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

// GET /api/v1/comments/:videoId
func GetVideoComments() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		videoID, err := bson.ObjectIDFromHex(c.Param("videoId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
			return
		}

		page := utils.ParseIntDefault(c.Query("page"), 1)
		limit := utils.ParseIntDefault(c.Query("limit"), 20)
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		commentsCol := database.OpenCollection("comments")
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"video": videoID}}},
			{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
			{{Key: "$skip", Value: int64((page - 1) * limit)}},
			{{Key: "$limit", Value: int64(limit)}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "owner",
				"foreignField": "_id",
				"as":           "owner",
				"pipeline": bson.A{
					bson.M{"$project": bson.M{"username": 1, "fullName": 1, "avatar": 1}},
				},
			}}},
			{{Key: "$addFields", Value: bson.M{"owner": bson.M{"$first": "$owner"}}}},
		}

		cursor, err := commentsCol.Aggregate(ctx, pipeline)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		comments := make([]bson.M, 0)
		if err := cursor.All(ctx, &comments); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": comments,
			"page":  page,
			"limit": limit,
		})
	}
}

// POST /api/v1/comments/:videoId
func AddComment() gin.HandlerFunc {
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

		var body dto.CommentDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		videosCol := database.OpenCollection("videos")
		if err := videosCol.FindOne(ctx, bson.M{"_id": videoID}).Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		now := time.Now().UTC()
		comment := models.Comment{
			ID:        bson.NewObjectID(),
			Video:     videoID,
			Owner:     owner.ID,
			Content:   body.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}

		commentsCol := database.OpenCollection("comments")
		if _, err := commentsCol.InsertOne(ctx, comment); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, comment)
	}
}

// PATCH /api/v1/comments/c/:commentId
func UpdateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		commentID, err := bson.ObjectIDFromHex(c.Param("commentId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
			return
		}

		var body dto.CommentDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		commentsCol := database.OpenCollection("comments")
		var updated models.Comment
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = commentsCol.FindOneAndUpdate(c.Request.Context(),
			bson.M{"_id": commentID, "owner": owner.ID},
			bson.M{"$set": bson.M{"content": body.Content, "updatedAt": time.Now().UTC()}},
			opts,
		).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DELETE /api/v1/comments/c/:commentId
func DeleteComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		commentID, err := bson.ObjectIDFromHex(c.Param("commentId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
			return
		}

		commentsCol := database.OpenCollection("comments")
		res, err := commentsCol.DeleteOne(c.Request.Context(), bson.M{"_id": commentID, "owner": owner.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
