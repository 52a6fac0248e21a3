package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Playlist struct {
	ID          bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string          `bson:"name" json:"name"`
	Description string          `bson:"description" json:"description"`
	Owner       bson.ObjectID   `bson:"owner" json:"owner"`
	Videos      []bson.ObjectID `bson:"videos" json:"videos"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}
