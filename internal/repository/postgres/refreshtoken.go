package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const createToken = `-- name: CreateRefreshToken
INSERT INTO refresh_tokens (user_id, expires_at)
VALUES ($1, $2)
RETURNING id, user_id, created_at, expires_at
`

// Create token record, id is generated by database
func (r *RefreshTokenRepo) Create(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, createToken, userID, expiresAt)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return token, apperrors.ErrUserNotFound
		}

		return token, dbError(err)
	}

	return token, nil
}

const getToken = `-- name: GetRefreshToken not expired only
SELECT id, user_id, created_at, expires_at
FROM refresh_tokens
WHERE id = $1 AND expires_at > now()
`

func (r *RefreshTokenRepo) Get(ctx context.Context, id uuid.UUID) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, id)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrRefreshTokenNotFound
	default:
		return token, dbError(err)
	}
}

const deleteToken = `-- name: DeleteRefreshToken
DELETE FROM refresh_tokens
WHERE id = $1
`

// Delete token record
// Single row delete, zero affected rows is ok
func (r *RefreshTokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.Exec(ctx, deleteToken, id)
	if err != nil {
		return dbError(err)
	}
	return nil
}

const listUserTokens = `-- name: ListUserRefreshTokens not expired only
SELECT id
FROM refresh_tokens
WHERE user_id = $1 AND expires_at > now()
`

func (r *RefreshTokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, _ := r.DB.Query(ctx, listUserTokens, userID)
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, dbError(err)
	}
	return ids, nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
	return t, err
}
