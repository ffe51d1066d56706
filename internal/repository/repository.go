package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/models"
)

type CreateUserParams struct {
	Email          string
	FirstName      string
	LastName       string
	Role           models.Role
	HashedPassword string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
// The only source of truth which refresh tokens are valid. There is no update:
// rotation is always Delete + Create
type RefreshTokenRepo interface {
	// Create record and return it with the id assigned by the repository
	Create(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (models.RefreshToken, error)

	// Return the record if it exists and not expired
	// Otherwise must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, id uuid.UUID) (models.RefreshToken, error)

	// Delete record. Must be idempotent: deleting not existed record is not an error
	Delete(ctx context.Context, id uuid.UUID) error

	// Return ids of all user's not expired records. Order is not defined
	ListByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Tenant repository interface
type TenantRepo interface {
	CreateTenant(ctx context.Context, name string, address string) (models.Tenant, error)

	// If tenant not found must return apperrors.ErrTenantNotFound
	GetTenant(ctx context.Context, id uuid.UUID) (models.Tenant, error)

	// Tenants ordered by creation time
	ListTenants(ctx context.Context) ([]models.Tenant, error)
}

// Storage groups repositories sharing the same database connection (or transaction)
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Tenant() TenantRepo
}
