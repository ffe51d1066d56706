package apperrors

import (
	"errors"
)

var (
	ErrValidationFailed = errors.New("validation failed")

	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrAuthenticationFailed = errors.New("email or password does not match")
	ErrInvalidDigestFormat  = errors.New("invalid password digest format")
	ErrForbidden            = errors.New("access forbidden")

	ErrRefreshTokenNotFound    = errors.New("refresh token not found")
	ErrSessionRevokedOrExpired = errors.New("session revoked or expired")

	ErrInvalidToken = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")

	ErrKeyUnavailable = errors.New("key material unavailable")

	ErrTenantNotFound = errors.New("tenant not found")

	ErrStorageFailure = errors.New("storage failure")
)
