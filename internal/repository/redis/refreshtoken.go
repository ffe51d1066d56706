// Package redis keeps refresh token records in redis.
//
// Every record is a hash under "<prefix>:rt:<id>" that expires together with the token.
// Ids of user records are tracked in the set "<prefix>:rt:user:<user_id>", stale members are pruned on read.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
)

const DefaultPrefix = "identity"

// Drop the record and its membership in user index in one step
const deleteTokenScript = `
redis.call("SREM", KEYS[2], ARGV[1])
return redis.call("DEL", KEYS[1])
`

var deleteTokenLua = redis.NewScript(deleteTokenScript)

type RefreshTokenRepo struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRefreshTokenRepo(rdb redis.UniversalClient, prefix string) *RefreshTokenRepo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RefreshTokenRepo{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *RefreshTokenRepo) tokenKey(id uuid.UUID) string {
	return r.prefix + ":rt:" + id.String()
}

func (r *RefreshTokenRepo) userKey(userID uuid.UUID) string {
	return r.prefix + ":rt:user:" + userID.String()
}

func (r *RefreshTokenRepo) Create(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (models.RefreshToken, error) {
	// Stored with microsecond precision, returned value has to match what Get reads back
	token := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: r.now().UTC().Truncate(time.Microsecond),
		ExpiresAt: expiresAt.UTC().Truncate(time.Microsecond),
	}

	key := r.tokenKey(token.ID)
	userKey := r.userKey(userID)

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", token.UserID.String(),
			"created_at", token.CreatedAt.UnixMicro(),
			"expires_at", token.ExpiresAt.UnixMicro(),
		)
		pipe.ExpireAt(ctx, key, token.ExpiresAt)
		pipe.SAdd(ctx, userKey, token.ID.String())
		return nil
	})
	if err != nil {
		return models.RefreshToken{}, storageError(err)
	}

	return token, nil
}

func (r *RefreshTokenRepo) Get(ctx context.Context, id uuid.UUID) (models.RefreshToken, error) {
	fields, err := r.rdb.HGetAll(ctx, r.tokenKey(id)).Result()
	if err != nil {
		return models.RefreshToken{}, storageError(err)
	}
	if len(fields) == 0 {
		return models.RefreshToken{}, apperrors.ErrRefreshTokenNotFound
	}

	token, err := parseToken(id, fields)
	if err != nil {
		return models.RefreshToken{}, storageError(err)
	}

	// Key expiration is lazy, so check it explicitly
	if !token.ExpiresAt.After(r.now()) {
		return models.RefreshToken{}, apperrors.ErrRefreshTokenNotFound
	}

	return token, nil
}

// Delete is idempotent: removing absent record is not an error
func (r *RefreshTokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	fields, err := r.rdb.HMGet(ctx, r.tokenKey(id), "user_id").Result()
	if err != nil {
		return storageError(err)
	}

	userID, ok := fields[0].(string)
	if !ok {
		return nil // already gone
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return storageError(fmt.Errorf("record %s has malformed user_id: %w", id, err))
	}

	err = deleteTokenLua.Run(ctx, r.rdb, []string{r.tokenKey(id), r.userKey(uid)}, id.String()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return storageError(err)
	}

	return nil
}

func (r *RefreshTokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	userKey := r.userKey(userID)

	members, err := r.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, storageError(err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	stale := make([]any, 0)

	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			stale = append(stale, m)
			continue
		}

		_, err = r.Get(ctx, id)
		switch {
		case err == nil:
			ids = append(ids, id)
		case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
			stale = append(stale, m)
		default:
			return nil, err
		}
	}

	if len(stale) > 0 {
		if err := r.rdb.SRem(ctx, userKey, stale...).Err(); err != nil {
			return nil, storageError(err)
		}
	}

	return ids, nil
}

func parseToken(id uuid.UUID, fields map[string]string) (models.RefreshToken, error) {
	userID, err := uuid.Parse(fields["user_id"])
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("record %s has malformed user_id: %w", id, err)
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("record %s has malformed created_at: %w", id, err)
	}

	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("record %s has malformed expires_at: %w", id, err)
	}

	return models.RefreshToken{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.UnixMicro(createdAt).UTC(),
		ExpiresAt: time.UnixMicro(expiresAt).UTC(),
	}, nil
}

func storageError(err error) error {
	return fmt.Errorf("%w: redis error: %w", apperrors.ErrStorageFailure, err)
}
