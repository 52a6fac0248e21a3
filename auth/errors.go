package auth

import "errors"

// Failure taxonomy for the session lifecycle. Handlers map these onto HTTP
// statuses; nothing below this package retries on its own.
var (
	// ErrInvalidCredentials covers both an unknown username/email and a wrong
	// password, so a login response never reveals which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken means the token is malformed, expired, or carries a bad
	// signature.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTokenReused means the refresh token verified cryptographically but no
	// longer matches the persisted slot: it was already rotated, or the
	// session was logged out. Treated as a possible replay.
	ErrTokenReused = errors.New("refresh token is expired or already used")

	// ErrUnauthenticated means no token was presented at all.
	ErrUnauthenticated = errors.New("missing authentication token")

	// ErrUnknownIdentity means the token subject no longer resolves to a user.
	ErrUnknownIdentity = errors.New("unknown user")

	// ErrPersistenceFailure wraps store errors (unreachable, write rejected).
	ErrPersistenceFailure = errors.New("persistence failure")
)
