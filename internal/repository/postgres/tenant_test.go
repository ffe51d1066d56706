package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/testutil"
)

func Test_TenantRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create tenant ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TenantRepo{DB: tx}

			tenant, err := r.CreateTenant(t.Context(), "Tenant name", "Tenant address")

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, tenant.ID)
			require.Equal(t, "Tenant name", tenant.Name)
			require.Equal(t, "Tenant address", tenant.Address)
			require.WithinDuration(t, time.Now(), tenant.CreatedAt, time.Second)
		})
	})

	t.Run("get tenant ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TenantRepo{DB: tx}
			created, err := r.CreateTenant(t.Context(), "Tenant name", "Tenant address")
			require.NoError(t, err)

			got, err := r.GetTenant(t.Context(), created.ID)

			require.NoError(t, err)
			require.Equal(t, created, got)
		})
	})

	t.Run("get tenant not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TenantRepo{DB: tx}

			_, err := r.GetTenant(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrTenantNotFound)
		})
	})

	t.Run("list tenants", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TenantRepo{DB: tx}
			first, err := r.CreateTenant(t.Context(), "First", "First address")
			require.NoError(t, err)
			second, err := r.CreateTenant(t.Context(), "Second", "Second address")
			require.NoError(t, err)

			got, err := r.ListTenants(t.Context())

			require.NoError(t, err)
			require.Len(t, got, 2)
			require.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID{got[0].ID, got[1].ID})
		})
	})
}
