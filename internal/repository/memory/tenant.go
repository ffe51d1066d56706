package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
)

type TenantRepo struct {
	mu      sync.RWMutex
	tenants []models.Tenant
}

func NewTenantRepo() *TenantRepo {
	return &TenantRepo{}
}

func (r *TenantRepo) CreateTenant(_ context.Context, name string, address string) (models.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tenant := models.Tenant{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Name:      name,
		Address:   address,
	}
	r.tenants = append(r.tenants, tenant)

	return tenant, nil
}

func (r *TenantRepo) GetTenant(_ context.Context, id uuid.UUID) (models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Tenant{}, apperrors.ErrTenantNotFound
}

func (r *TenantRepo) ListTenants(_ context.Context) ([]models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenants := make([]models.Tenant, len(r.tenants))
	copy(tenants, r.tenants)
	return tenants, nil
}
