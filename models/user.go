package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	Email        string        `bson:"email" json:"email"`
	FullName     string        `bson:"fullName" json:"fullName"`
	Avatar       string        `bson:"avatar" json:"avatar"`
	AvatarObject string        `bson:"avatarObject,omitempty" json:"-"`
	CoverImage   string        `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	CoverObject  string        `bson:"coverObject,omitempty" json:"-"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	// RefreshToken is the single active refresh token for this user.
	// Overwritten on login and refresh, unset on logout.
	RefreshToken string          `bson:"refreshToken,omitempty" json:"-"`
	WatchHistory []bson.ObjectID `bson:"watchHistory,omitempty" json:"-"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updatedAt"`
}
