package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/handlers/middleware"
	"github.com/nkiryanov/identity/internal/keys"
	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	tenantService tenantService,
	keySet keys.KeySet,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)
	withAdmin := func(h http.Handler) http.Handler {
		return chain(h, withAuth, middleware.RequireRole(models.RoleAdmin))
	}

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(authService, logger))
	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /refresh", handleRefresh(authService, logger))
	apiauth.Handle("POST /logout", handleLogout(authService, logger))
	apiauth.Handle("GET /self", withAuth(handleSelf(userService, logger)))

	root := http.NewServeMux()
	root.Handle("/auth/", http.StripPrefix("/auth", apiauth))
	root.Handle("GET /.well-known/jwks.json", handleJWKS(keySet))
	root.Handle("POST /tenants", withAdmin(handleCreateTenant(tenantService, logger)))
	root.Handle("GET /tenants", withAdmin(handleListTenants(tenantService, logger)))
	root.Handle("POST /users/{id}/revoke", withAdmin(handleRevokeSessions(authService, logger)))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user and open session
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, params auth.RegisterParams) (models.User, models.TokenPair, error)

	// Has to return apperrors.ErrAuthenticationFailed on any credentials mismatch
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Rotate tokens using refresh token
	// Has to return apperrors.ErrSessionRevokedOrExpired if token can't be used anymore
	Refresh(ctx context.Context, refresh string) (models.User, models.TokenPair, error)

	// Revoke session refresh token belongs to
	Logout(ctx context.Context, refresh string) error

	// Return verified access token claims
	Whoami(ctx context.Context, access string) (models.AccessClaims, error)

	// Revoke every refresh record of the user, return how many were revoked
	RevokeAll(ctx context.Context, userID uuid.UUID) (int, error)

	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearTokens(w http.ResponseWriter)
	GetRefreshString(r *http.Request) (string, error)
	GetAccessString(r *http.Request) (string, error)
}

type userService interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type tenantService interface {
	Create(ctx context.Context, name string, address string) (models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
}
