package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/playtube/playtube-backend/database"
	"github.com/playtube/playtube-backend/middleware"
	"github.com/playtube/playtube-backend/models"
)

// POST /api/v1/subscriptions/c/:channelId
func ToggleSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		subscriber, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		channelID, err := bson.ObjectIDFromHex(c.Param("channelId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
			return
		}
		if channelID == subscriber.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot subscribe to yourself"})
			return
		}

		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, bson.M{"_id": channelID}).Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "channel does not exist"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		subsCol := database.OpenCollection("subscriptions")
		filter := bson.M{"channel": channelID, "subscriber": subscriber.ID}

		res, err := subsCol.DeleteOne(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.DeletedCount > 0 {
			c.JSON(http.StatusOK, gin.H{"subscribed": false})
			return
		}

		sub := models.Subscription{
			ID:         bson.NewObjectID(),
			Subscriber: subscriber.ID,
			Channel:    channelID,
			CreatedAt:  time.Now().UTC(),
		}
		if _, err := subsCol.InsertOne(ctx, sub); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"subscribed": true})
	}
}

// GET /api/v1/subscriptions/c/:channelId
func GetChannelSubscribers() gin.HandlerFunc {
	return subscriptionLookup("channelId", "channel", "subscriber", "subscriberDetails")
}

// GET /api/v1/subscriptions/u/:subscriberId
func GetSubscribedChannels() gin.HandlerFunc {
	return subscriptionLookup("subscriberId", "subscriber", "channel", "channelDetails")
}

func subscriptionLookup(param, matchField, joinField, as string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, err := bson.ObjectIDFromHex(c.Param(param))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		subsCol := database.OpenCollection("subscriptions")
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{matchField: id}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   joinField,
				"foreignField": "_id",
				"as":           as,
			}}},
			{{Key: "$addFields", Value: bson.M{as: bson.M{"$first": "$" + as}}}},
			{{Key: "$project", Value: bson.M{
				as + ".username":   1,
				as + ".fullName":   1,
				as + ".avatar":     1,
				as + ".coverImage": 1,
			}}},
		}

		cursor, err := subsCol.Aggregate(ctx, pipeline)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		results := make([]bson.M, 0)
		if err := cursor.All(ctx, &results); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, results)
	}
}
