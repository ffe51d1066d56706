package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
)

type TenantRepo struct {
	DB DBTX
}

const createTenant = `-- name: CreateTenant
INSERT INTO tenants (id, name, address)
VALUES ($1, $2, $3)
RETURNING id, created_at, name, address
`

func (r *TenantRepo) CreateTenant(ctx context.Context, name string, address string) (models.Tenant, error) {
	rows, _ := r.DB.Query(ctx, createTenant, uuid.New(), name, address)
	tenant, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Tenant])
	if err != nil {
		return tenant, dbError(err)
	}
	return tenant, nil
}

const getTenant = `-- name: GetTenant
SELECT id, created_at, name, address
FROM tenants
WHERE id = $1
`

func (r *TenantRepo) GetTenant(ctx context.Context, id uuid.UUID) (models.Tenant, error) {
	rows, _ := r.DB.Query(ctx, getTenant, id)
	tenant, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Tenant])

	switch {
	case err == nil:
		return tenant, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tenant, apperrors.ErrTenantNotFound
	default:
		return tenant, dbError(err)
	}
}

const listTenants = `-- name: ListTenants
SELECT id, created_at, name, address
FROM tenants
ORDER BY created_at, id
`

func (r *TenantRepo) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	rows, _ := r.DB.Query(ctx, listTenants)
	tenants, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Tenant])
	if err != nil {
		return nil, dbError(err)
	}
	return tenants, nil
}
