package models

import (
	"time"

	"github.com/google/uuid"
)

// Server side record of the outstanding refresh token
// Exists until the token is rotated, revoked or expired
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issues by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Verified access token payload
type AccessClaims struct {
	UserID    uuid.UUID
	Role      Role
	ExpiresAt time.Time
}

// Verified refresh token payload
// RecordID points to the RefreshToken record the token is bound to
type RefreshClaims struct {
	UserID    uuid.UUID
	Role      Role
	RecordID  uuid.UUID
	ExpiresAt time.Time
}
