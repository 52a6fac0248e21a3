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
)

// POST /api/v1/tweets
func CreateTweet() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var body dto.TweetDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now().UTC()
		tweet := models.Tweet{
			ID:        bson.NewObjectID(),
			Owner:     owner.ID,
			Content:   body.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}

		tweetsCol := database.OpenCollection("tweets")
		if _, err := tweetsCol.InsertOne(c.Request.Context(), tweet); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, tweet)
	}
}

// GET /api/v1/tweets/user/:userId
func GetUserTweets() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID, err := bson.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		tweetsCol := database.OpenCollection("tweets")
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := tweetsCol.Find(ctx, bson.M{"owner": userID}, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		tweets := make([]models.Tweet, 0)
		if err := cursor.All(ctx, &tweets); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, tweets)
	}
}

// PATCH /api/v1/tweets/:tweetId
func UpdateTweet() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		tweetID, err := bson.ObjectIDFromHex(c.Param("tweetId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tweet id"})
			return
		}

		var body dto.TweetDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tweetsCol := database.OpenCollection("tweets")
		var updated models.Tweet
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = tweetsCol.FindOneAndUpdate(ctx,
			bson.M{"_id": tweetID, "owner": owner.ID},
			bson.M{"$set": bson.M{"content": body.Content, "updatedAt": time.Now().UTC()}},
			opts,
		).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "tweet not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DELETE /api/v1/tweets/:tweetId
func DeleteTweet() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		tweetID, err := bson.ObjectIDFromHex(c.Param("tweetId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tweet id"})
			return
		}

		tweetsCol := database.OpenCollection("tweets")
		res, err := tweetsCol.DeleteOne(c.Request.Context(), bson.M{"_id": tweetID, "owner": owner.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "tweet not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
