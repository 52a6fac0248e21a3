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

// POST /api/v1/playlists
func CreatePlaylist() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var body dto.CreatePlaylistDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now().UTC()
		playlist := models.Playlist{
			ID:          bson.NewObjectID(),
			Name:        body.Name,
			Description: body.Description,
			Owner:       owner.ID,
			Videos:      []bson.ObjectID{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		playlistsCol := database.OpenCollection("playlists")
		if _, err := playlistsCol.InsertOne(c.Request.Context(), playlist); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, playlist)
	}
}

// GET /api/v1/playlists/user/:userId
func GetUserPlaylists() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID, err := bson.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		playlistsCol := database.OpenCollection("playlists")
		cursor, err := playlistsCol.Find(ctx, bson.M{"owner": userID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		playlists := make([]models.Playlist, 0)
		if err := cursor.All(ctx, &playlists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, playlists)
	}
}

// GET /api/v1/playlists/p/:playlistId
//
// Joins the playlist's video ids against videos, each video carrying a
// trimmed owner snapshot, plus the playlist owner's details.
func GetPlaylist() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		playlistID, err := bson.ObjectIDFromHex(c.Param("playlistId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid playlist id"})
			return
		}

		playlistsCol := database.OpenCollection("playlists")
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"_id": playlistID}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "videos",
				"localField":   "videos",
				"foreignField": "_id",
				"as":           "videoList",
				"pipeline": bson.A{
					bson.M{"$lookup": bson.M{
						"from":         "users",
						"localField":   "owner",
						"foreignField": "_id",
						"as":           "videoOwner",
						"pipeline": bson.A{
							bson.M{"$project": bson.M{"username": 1, "avatar": 1}},
						},
					}},
					bson.M{"$addFields": bson.M{"videoOwner": bson.M{"$first": "$videoOwner"}}},
				},
			}}},
			{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "owner",
				"foreignField": "_id",
				"as":           "ownerDetails",
				"pipeline": bson.A{
					bson.M{"$project": bson.M{"username": 1, "fullName": 1, "avatar": 1}},
				},
			}}},
			{{Key: "$addFields", Value: bson.M{"ownerDetails": bson.M{"$first": "$ownerDetails"}}}},
			{{Key: "$project", Value: bson.M{
				"name":                  1,
				"description":           1,
				"ownerDetails":          1,
				"videoList.videoFile":   1,
				"videoList.thumbnail":   1,
				"videoList.title":       1,
				"videoList.description": 1,
				"videoList.duration":    1,
				"videoList.views":       1,
				"videoList.videoOwner":  1,
			}}},
		}

		cursor, err := playlistsCol.Aggregate(ctx, pipeline)
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
			c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
			return
		}

		c.JSON(http.StatusOK, results[0])
	}
}

// POST /api/v1/playlists/add-video
func AddVideoToPlaylist() gin.HandlerFunc {
	return playlistVideoUpdate("$addToSet")
}

// POST /api/v1/playlists/remove-video
func RemoveVideoFromPlaylist() gin.HandlerFunc {
	return playlistVideoUpdate("$pull")
}

func playlistVideoUpdate(op string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var body dto.PlaylistVideoDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		playlistID, err := bson.ObjectIDFromHex(body.PlaylistID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid playlist id"})
			return
		}
		videoID, err := bson.ObjectIDFromHex(body.VideoID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
			return
		}

		if op == "$addToSet" {
			videosCol := database.OpenCollection("videos")
			if err := videosCol.FindOne(ctx, bson.M{"_id": videoID}).Err(); err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		playlistsCol := database.OpenCollection("playlists")
		var updated models.Playlist
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = playlistsCol.FindOneAndUpdate(ctx,
			bson.M{"_id": playlistID, "owner": owner.ID},
			bson.M{
				op:     bson.M{"videos": videoID},
				"$set": bson.M{"updatedAt": time.Now().UTC()},
			},
			opts,
		).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// PATCH /api/v1/playlists/p/:playlistId
func UpdatePlaylist() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		playlistID, err := bson.ObjectIDFromHex(c.Param("playlistId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid playlist id"})
			return
		}

		var body dto.UpdatePlaylistDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		set := bson.M{"name": body.Name, "updatedAt": time.Now().UTC()}
		if body.Description != nil {
			set["description"] = *body.Description
		}

		playlistsCol := database.OpenCollection("playlists")
		var updated models.Playlist
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = playlistsCol.FindOneAndUpdate(ctx,
			bson.M{"_id": playlistID, "owner": owner.ID},
			bson.M{"$set": set},
			opts,
		).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DELETE /api/v1/playlists/p/:playlistId
func DeletePlaylist() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		owner, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		playlistID, err := bson.ObjectIDFromHex(c.Param("playlistId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid playlist id"})
			return
		}

		playlistsCol := database.OpenCollection("playlists")
		res, err := playlistsCol.DeleteOne(ctx, bson.M{"_id": playlistID, "owner": owner.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
