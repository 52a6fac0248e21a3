package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Video struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner           bson.ObjectID `bson:"owner" json:"owner"`
	VideoFile       string        `bson:"videoFile" json:"videoFile"`
	VideoObject     string        `bson:"videoObject" json:"-"`
	Thumbnail       string        `bson:"thumbnail" json:"thumbnail"`
	ThumbnailObject string        `bson:"thumbnailObject" json:"-"`
	Title           string        `bson:"title" json:"title"`
	Description     string        `bson:"description" json:"description"`
	Duration        float64       `bson:"duration" json:"duration"`
	Views           int64         `bson:"views" json:"views"`
	IsPublished     bool          `bson:"isPublished" json:"isPublished"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}
