// Package authtest provides an in-memory identity/session store for tests.
package authtest

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/models"
)

// Store implements auth.IdentityStore and auth.SessionStore in memory with
// the same last-write-wins semantics as the mongo-backed store.
type Store struct {
	mu    sync.Mutex
	users map[string]*models.User // by hex id
}

func NewStore() *Store {
	return &Store{users: make(map[string]*models.User)}
}

// MustAddUser registers a user with the given plaintext password and returns
// the stored record.
func (s *Store) MustAddUser(username, email, password string) *models.User {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	user := &models.User{
		ID:           bson.NewObjectID(),
		Username:     username,
		Email:        email,
		FullName:     username,
		PasswordHash: hash,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID.Hex()] = user
	return copyUser(user)
}

// RemoveUser deletes a user, simulating an identity that no longer exists.
func (s *Store) RemoveUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *Store) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUnknownIdentity
	}
	return copyUser(user), nil
}

func (s *Store) FindByUsernameOrEmail(_ context.Context, usernameOrEmail string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == usernameOrEmail || user.Email == usernameOrEmail {
			return copyUser(user), nil
		}
	}
	return nil, auth.ErrUnknownIdentity
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return auth.ErrUnknownIdentity
	}
	user.PasswordHash = hash
	return nil
}

func (s *Store) PersistRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return auth.ErrUnknownIdentity
	}
	user.RefreshToken = token
	return nil
}

func (s *Store) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return auth.ErrUnknownIdentity
	}
	user.RefreshToken = ""
	return nil
}

func (s *Store) PersistedRefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return "", auth.ErrUnknownIdentity
	}
	return user.RefreshToken, nil
}

func copyUser(u *models.User) *models.User {
	clone := *u
	return &clone
}
