// Package auth implements the authentication and session-token lifecycle:
// password verification, access/refresh token issuance, single-slot refresh
// rotation with reuse detection, and access-token authentication.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/playtube/playtube-backend/models"
)

// IdentityStore resolves user records for authentication. Implementations
// return ErrUnknownIdentity when no user matches and wrap any other store
// error in ErrPersistenceFailure.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// SessionStore holds the single active refresh token per user. Writes are
// last-write-wins; concurrent rotations for one user are resolved by the
// store, and the loser sees ErrTokenReused on its next attempt.
type SessionStore interface {
	PersistRefreshToken(ctx context.Context, userID, token string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	PersistedRefreshToken(ctx context.Context, userID string) (string, error)
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service struct {
	issuer   *TokenIssuer
	users    IdentityStore
	sessions SessionStore
}

func NewService(issuer *TokenIssuer, users IdentityStore, sessions SessionStore) *Service {
	return &Service{issuer: issuer, users: users, sessions: sessions}
}

// Login verifies credentials and starts a session, overwriting whatever
// refresh token the user had before. An unknown user and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, strings.ToLower(strings.TrimSpace(usernameOrEmail)))
	if err != nil {
		if errors.Is(err, ErrUnknownIdentity) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, nil, err
	}
	pair, err := s.issuePair(ctx, user.ID.Hex())
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a presented refresh token and rotates the pair.
// The token must verify cryptographically and byte-match the persisted slot;
// a mismatch means it was already rotated or revoked and is reported as
// ErrTokenReused.
func (s *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.issuer.VerifyRefreshToken(presented)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, claims.UserID); err != nil {
		return nil, err
	}

	persisted, err := s.sessions.PersistedRefreshToken(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if persisted == "" || subtle.ConstantTimeCompare([]byte(persisted), []byte(presented)) != 1 {
		return nil, ErrTokenReused
	}

	return s.issuePair(ctx, claims.UserID)
}

// Logout clears the persisted refresh token. The last-issued refresh token
// keeps verifying cryptographically but will fail the slot match.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.sessions.ClearRefreshToken(ctx, userID)
}

// ChangePassword verifies the old password, stores a new hash, and revokes
// the active session so stolen refresh tokens die with the old password.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == newPassword {
		return ErrInvalidCredentials
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user.PasswordHash, oldPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	return s.sessions.ClearRefreshToken(ctx, userID)
}

// Authenticate resolves an access token to a current user snapshot. It never
// mutates stored state and never consults refresh tokens: an expired access
// token is rejected outright.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.issuer.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, claims.UserID)
}

// issuePair mints both tokens before persisting anything, so a failed mint
// leaves the previous session untouched.
func (s *Service) issuePair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := s.issuer.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.PersistRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
