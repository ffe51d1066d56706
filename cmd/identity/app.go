package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/identity/internal/db"
	"github.com/nkiryanov/identity/internal/handlers"
	"github.com/nkiryanov/identity/internal/keys"
	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/repository"
	"github.com/nkiryanov/identity/internal/repository/memory"
	"github.com/nkiryanov/identity/internal/repository/postgres"
	redisrepo "github.com/nkiryanov/identity/internal/repository/redis"
	"github.com/nkiryanov/identity/internal/service/auth"
	"github.com/nkiryanov/identity/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/identity/internal/service/tenant"
	"github.com/nkiryanov/identity/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (app *ServerApp, err error) {
	app = &ServerApp{ListenAddr: c.ListenAddr}

	// Release everything acquired so far if app can't be built
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	if err = c.Validate(); err != nil {
		return app, fmt.Errorf("invalid config. Err: %w", err)
	}

	app.logger, err = logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return app, fmt.Errorf("error while initializing logger: %w", err)
	}

	km, err := keys.Load(keys.Config{
		PrivateKeyPath: c.PrivateKeyPath,
		PrivateKeyPEM:  c.PrivateKeyPEM,
		VerifyKeyPaths: c.VerifyKeyPaths,
		RefreshSecret:  c.RefreshSecret,
	})
	if err != nil {
		return app, fmt.Errorf("error while loading keys. Err: %w", err)
	}

	hasher, err := user.NewHasher(c.Hasher, c.BcryptCost)
	if err != nil {
		return app, err
	}

	storage, refreshRepo, err := app.initStorage(ctx, c)
	if err != nil {
		return app, err
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{Issuer: c.TokenIssuer}, km)
	if err != nil {
		return app, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(hasher, storage.User())
	tenantService := tenant.NewService(storage.Tenant())
	authService, err := auth.NewService(
		auth.Config{CookieDomain: c.CookieDomain, CookieSecure: c.CookieSecure},
		tokenManager,
		userService,
		refreshRepo,
	)
	if err != nil {
		return app, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	app.Handler = handlers.NewRouter(
		authService,
		userService,
		tenantService,
		km.VerificationKeySet(),
		app.logger,
	)

	app.logger.Info("App initialized",
		"refresh_store", c.RefreshStore,
		"hasher", c.Hasher,
		"kid", km.KeyID(),
	)

	return app, nil
}

// Pick storage backends. Users and tenants live in postgres unless everything is kept in memory
func (s *ServerApp) initStorage(ctx context.Context, c *Config) (repository.Storage, repository.RefreshTokenRepo, error) {
	if c.RefreshStore == StoreMemory {
		storage := memory.NewStorage()
		return storage, storage.Refresh(), nil
	}

	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	s.closers = append(s.closers, pool.Close)

	storage := postgres.NewStorage(pool)
	if c.RefreshStore == StorePostgres {
		return storage, storage.Refresh(), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	s.closers = append(s.closers, func() { _ = rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis is not reachable. Err: %w", err)
	}

	return storage, redisrepo.NewRefreshTokenRepo(rdb, redisrepo.DefaultPrefix), nil
}

// Close releases connections in reverse order
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
