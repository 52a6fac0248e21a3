package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Tweet struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner     bson.ObjectID `bson:"owner" json:"owner"`
	Content   string        `bson:"content" json:"content"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
