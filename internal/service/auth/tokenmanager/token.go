// Package tokenmanager issues and verifies session tokens.
//
// Access tokens are RS256 JWTs checked by anyone holding the public key set.
// Refresh tokens are HS256 JWTs bound to a refresh record through 'jti'.
// The manager is pure: it never touches storage.
package tokenmanager

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/keys"
	"github.com/nkiryanov/identity/internal/models"
)

const (
	DefaultIssuer          = "auth-service"
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 365 * 24 * time.Hour
)

// Key material the manager signs and verifies with
// Satisfied by *keys.Provider
type KeyMaterial interface {
	SigningKey() *rsa.PrivateKey
	KeyID() string
	VerificationKeySet() keys.KeySet
	RefreshSecret() []byte
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

type refreshTokenClaims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// Token manager with sensible default
type Config struct {
	// Value of 'iss' claim. Tokens with other issuer are rejected
	Issuer string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	signingKey    *rsa.PrivateKey
	keyID         string
	verifyKeys    jwt.VerificationKeySet
	refreshSecret []byte

	now func() time.Time
}

func New(cfg Config, km KeyMaterial) (*TokenManager, error) {
	if km == nil || km.SigningKey() == nil {
		return nil, fmt.Errorf("%w: signing key is not set", apperrors.ErrKeyUnavailable)
	}
	if len(km.RefreshSecret()) == 0 {
		return nil, fmt.Errorf("%w: refresh secret is not set", apperrors.ErrKeyUnavailable)
	}

	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, DefaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, DefaultRefreshTokenTTL)

	var verifyKeys jwt.VerificationKeySet
	for _, pub := range km.VerificationKeySet().PublicKeys() {
		verifyKeys.Keys = append(verifyKeys.Keys, pub)
	}
	if len(verifyKeys.Keys) == 0 {
		verifyKeys.Keys = append(verifyKeys.Keys, &km.SigningKey().PublicKey)
	}

	return &TokenManager{
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		signingKey:    km.SigningKey(),
		keyID:         km.KeyID(),
		verifyKeys:    verifyKeys,
		refreshSecret: km.RefreshSecret(),
		now:           time.Now,
	}, nil
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue RS256 access token valid for access TTL
func (m *TokenManager) IssueAccess(userID uuid.UUID, role models.Role) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(
		jwt.SigningMethodRS256,
		accessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    m.issuer,
				Subject:   userID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Role: role,
		},
	)
	token.Header["kid"] = m.keyID

	value, err := token.SignedString(m.signingKey)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Issue HS256 refresh token bound to the record with recordID
// expiresAt has to be the record expiration, so token and record expire together
func (m *TokenManager) IssueRefresh(userID uuid.UUID, role models.Role, recordID uuid.UUID, expiresAt time.Time) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)

	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		refreshTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        recordID.String(),
				Issuer:    m.issuer,
				Subject:   userID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Role: role,
		},
	)

	value, err := token.SignedString(m.refreshSecret)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(access string) (models.AccessClaims, error) {
	claims := &accessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.verifyKeys, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.AccessClaims{}, tokenError(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.AccessClaims{}, fmt.Errorf("%w: malformed subject. Err: %w", apperrors.ErrInvalidToken, err)
	}

	return models.AccessClaims{
		UserID:    userID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse and validate refresh token signature and expiration
// Whether the bound record still exists is up to the caller
func (m *TokenManager) ParseRefresh(refresh string) (models.RefreshClaims, error) {
	claims := &refreshTokenClaims{}

	_, err := jwt.ParseWithClaims(
		refresh,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.refreshSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.RefreshClaims{}, tokenError(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.RefreshClaims{}, fmt.Errorf("%w: malformed subject. Err: %w", apperrors.ErrInvalidToken, err)
	}

	recordID, err := uuid.Parse(claims.ID)
	if err != nil {
		return models.RefreshClaims{}, fmt.Errorf("%w: malformed jti. Err: %w", apperrors.ErrInvalidToken, err)
	}

	return models.RefreshClaims{
		UserID:    userID,
		Role:      claims.Role,
		RecordID:  recordID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
}
