// Package memory implements repositories on top of mutex guarded maps.
// Used for tests and single process deployments where losing sessions on restart is fine.
package memory

import (
	"github.com/nkiryanov/identity/internal/repository"
)

type Storage struct {
	users   *UserRepo
	refresh *RefreshTokenRepo
	tenants *TenantRepo
}

func NewStorage() *Storage {
	return &Storage{
		users:   NewUserRepo(),
		refresh: NewRefreshTokenRepo(),
		tenants: NewTenantRepo(),
	}
}

func (s *Storage) User() repository.UserRepo {
	return s.users
}

func (s *Storage) Refresh() repository.RefreshTokenRepo {
	return s.refresh
}

func (s *Storage) Tenant() repository.TenantRepo {
	return s.tenants
}
