package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/repository"
)

type TenantService struct {
	tenantRepo repository.TenantRepo
}

func NewService(tenantRepo repository.TenantRepo) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

func (s *TenantService) Create(ctx context.Context, name string, address string) (models.Tenant, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" || address == "" {
		return models.Tenant{}, fmt.Errorf("%w: tenant name and address must not be empty", apperrors.ErrValidationFailed)
	}

	tenant, err := s.tenantRepo.CreateTenant(ctx, name, address)
	if err != nil {
		return models.Tenant{}, fmt.Errorf("can't create tenant. Err: %w", err)
	}

	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]models.Tenant, error) {
	return s.tenantRepo.ListTenants(ctx)
}
