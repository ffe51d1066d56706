package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
)

type RefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]models.RefreshToken
	now    func() time.Time
}

func NewRefreshTokenRepo() *RefreshTokenRepo {
	return &RefreshTokenRepo{
		tokens: make(map[uuid.UUID]models.RefreshToken),
		now:    time.Now,
	}
}

func (r *RefreshTokenRepo) Create(_ context.Context, userID uuid.UUID, expiresAt time.Time) (models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: r.now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	r.tokens[token.ID] = token

	return token, nil
}

func (r *RefreshTokenRepo) Get(_ context.Context, id uuid.UUID) (models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return models.RefreshToken{}, apperrors.ErrRefreshTokenNotFound
	}

	if !token.ExpiresAt.After(r.now()) {
		delete(r.tokens, id)
		return models.RefreshToken{}, apperrors.ErrRefreshTokenNotFound
	}

	return token, nil
}

func (r *RefreshTokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, id)
	return nil
}

func (r *RefreshTokenRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	ids := make([]uuid.UUID, 0)
	for id, token := range r.tokens {
		if token.UserID == userID && token.ExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Len returns number of stored records, expired ones included
func (r *RefreshTokenRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
