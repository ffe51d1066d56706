// Package auth drives the session lifecycle: register, login, refresh, logout and whoami.
//
// A session is the pair of short lived access token and long lived refresh token.
// The refresh token is valid only while the refresh record it is bound to exists,
// so revocation is deleting the record.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/repository"
	"github.com/nkiryanov/identity/internal/service/user"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
	defaultAccessAuthScheme  = "Bearer"
)

type tokenManager interface {
	IssueAccess(userID uuid.UUID, role models.Role) (models.IssuedToken, error)
	IssueRefresh(userID uuid.UUID, role models.Role, recordID uuid.UUID, expiresAt time.Time) (models.IssuedToken, error)
	ParseAccess(access string) (models.AccessClaims, error)
	ParseRefresh(refresh string) (models.RefreshClaims, error)
	RefreshTTL() time.Duration
}

type userService interface {
	CreateUser(ctx context.Context, params user.CreateUserParams) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	CheckCredentials(ctx context.Context, email string, password string) (models.User, error)
}

type Config struct {
	// Cookie names tokens are set to. Defaults are used if empty
	AccessCookieName  string
	RefreshCookieName string

	// Domain attribute of the token cookies. Empty means host-only cookie
	CookieDomain string

	// Set 'Secure' attribute to the token cookies
	CookieSecure bool
}

type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService struct {
	tokens      tokenManager
	users       userService
	refreshRepo repository.RefreshTokenRepo

	accessCookieName  string
	refreshCookieName string
	accessAuthScheme  string
	cookieDomain      string
	cookieSecure      bool

	now func() time.Time
}

func NewService(cfg Config, tokens tokenManager, users userService, refreshRepo repository.RefreshTokenRepo) (*AuthService, error) {
	if tokens == nil || users == nil || refreshRepo == nil {
		return nil, errors.New("token manager, user service and refresh repo must not be nil")
	}

	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefault(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		tokens:            tokens,
		users:             users,
		refreshRepo:       refreshRepo,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		accessAuthScheme:  defaultAccessAuthScheme,
		cookieDomain:      cfg.CookieDomain,
		cookieSecure:      cfg.CookieSecure,
		now:               time.Now,
	}, nil
}

// Register new user and open the first session
// If email is taken has to return apperrors.ErrUserAlreadyExists
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.User, models.TokenPair, error) {
	u, err := s.users.CreateUser(ctx, user.CreateUserParams(params))
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return u, pair, nil
}

// Login user with email and password
// Any credentials mismatch returns apperrors.ErrAuthenticationFailed, no record is created then
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	u, err := s.users.CheckCredentials(ctx, email, password)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return u, pair, nil
}

// Check refresh token signature and expiration, then the bound record existence
// Any failure except storage one returns apperrors.ErrSessionRevokedOrExpired
func (s *AuthService) VerifyRefresh(ctx context.Context, refresh string) (models.RefreshClaims, error) {
	claims, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return models.RefreshClaims{}, fmt.Errorf("%w: %w", apperrors.ErrSessionRevokedOrExpired, err)
	}

	record, err := s.refreshRepo.Get(ctx, claims.RecordID)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return models.RefreshClaims{}, fmt.Errorf("%w: %w", apperrors.ErrSessionRevokedOrExpired, err)
	case err != nil:
		return models.RefreshClaims{}, err
	}

	if record.UserID != claims.UserID {
		return models.RefreshClaims{}, fmt.Errorf("%w: record belongs to other user", apperrors.ErrSessionRevokedOrExpired)
	}

	return claims, nil
}

// Rotate session: the presented refresh token stops working, the new pair is returned
//
// Verification and deletion of the old record are not atomic. Two concurrent calls
// with the same token may both pass verification and both get a new pair.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.User, models.TokenPair, error) {
	claims, err := s.VerifyRefresh(ctx, refresh)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	// Fresh user data, so changed role gets to the new tokens
	u, err := s.users.GetUserByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrSessionRevokedOrExpired, err)
	case err != nil:
		return models.User{}, models.TokenPair{}, err
	}

	err = s.refreshRepo.Delete(ctx, claims.RecordID)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't revoke refresh record. Err: %w", err)
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return u, pair, nil
}

// Revoke the session the refresh token belongs to
// Logout of already revoked session is ok
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	claims, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrSessionRevokedOrExpired, err)
	}

	err = s.refreshRepo.Delete(ctx, claims.RecordID)
	if err != nil {
		return fmt.Errorf("can't revoke refresh record. Err: %w", err)
	}

	return nil
}

// Return access token claims. Stateless: storage is not consulted
func (s *AuthService) Whoami(_ context.Context, access string) (models.AccessClaims, error) {
	return s.tokens.ParseAccess(access)
}

// Revoke every user session. Returns number of revoked sessions
// Access tokens issued already stay valid until they expire
func (s *AuthService) RevokeAll(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.refreshRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	for i, id := range ids {
		if err := s.refreshRepo.Delete(ctx, id); err != nil {
			return i, fmt.Errorf("can't revoke refresh record. Err: %w", err)
		}
	}

	return len(ids), nil
}

func (s *AuthService) issuePair(ctx context.Context, u models.User) (models.TokenPair, error) {
	access, err := s.tokens.IssueAccess(u.ID, u.Role)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("access token could not be issued. Err: %w", err)
	}

	record, err := s.refreshRepo.Create(ctx, u.ID, s.now().Add(s.tokens.RefreshTTL()))
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh record could not be created. Err: %w", err)
	}

	refresh, err := s.tokens.IssueRefresh(u.ID, u.Role, record.ID, record.ExpiresAt)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh token could not be issued. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}
