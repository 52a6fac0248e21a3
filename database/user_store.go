package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/models"
)

// UserStore backs the auth package's identity and session interfaces with the
// users collection. The refresh token lives in a single field on the user
// document; updates are plain last-write-wins $set/$unset.
type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(col *mongo.Collection) *UserStore {
	return &UserStore{col: col}
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, auth.ErrUnknownIdentity
	}
	var user models.User
	if err := s.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err != nil {
		return nil, mapFindErr(err)
	}
	return &user, nil
}

func (s *UserStore) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	var user models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"username": usernameOrEmail},
		bson.M{"email": usernameOrEmail},
	}}
	if err := s.col.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapFindErr(err)
	}
	return &user, nil
}

func (s *UserStore) PersistRefreshToken(ctx context.Context, userID, token string) error {
	return s.setByID(ctx, userID, bson.M{"$set": bson.M{
		"refreshToken": token,
		"updatedAt":    time.Now().UTC(),
	}})
}

func (s *UserStore) ClearRefreshToken(ctx context.Context, userID string) error {
	return s.setByID(ctx, userID, bson.M{
		"$unset": bson.M{"refreshToken": 1},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *UserStore) PersistedRefreshToken(ctx context.Context, userID string) (string, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.RefreshToken, nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return s.setByID(ctx, userID, bson.M{"$set": bson.M{
		"passwordHash": hash,
		"updatedAt":    time.Now().UTC(),
	}})
}

func (s *UserStore) setByID(ctx context.Context, userID string, update bson.M) error {
	objID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return auth.ErrUnknownIdentity
	}
	res, err := s.col.UpdateByID(ctx, objID, update)
	if err != nil {
		return fmt.Errorf("%w: %v", auth.ErrPersistenceFailure, err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrUnknownIdentity
	}
	return nil
}

func mapFindErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return auth.ErrUnknownIdentity
	}
	return fmt.Errorf("%w: %v", auth.ErrPersistenceFailure, err)
}
