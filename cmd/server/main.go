// @title                       Identity Service API
// @version                     1.0
// @description                 User registration, login and bearer-token protected user lookup.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/99minutos/identity-service/docs"
	"github.com/99minutos/identity-service/internal/api"
	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/core/service"
	"github.com/99minutos/identity-service/internal/infrastructure/auth"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/identity-service/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/identity-service/internal/infrastructure/db/redis"
	"github.com/99minutos/identity-service/internal/infrastructure/queue"
	"github.com/99minutos/identity-service/internal/pkg/config"
	"github.com/99minutos/identity-service/pkg/logger"
)

const (
	serviceName     = "identity-service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

// store is the registry and audit repository chosen by STORE_BACKEND.
type store struct {
	users ports.UserRegistry
	ping  handler.Pinger
	audit ports.AuditRepository
	close func(ctx context.Context) error
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	hasher, err := auth.NewBcryptHasher(auth.DefaultCost)
	if err != nil {
		return fmt.Errorf("hasher: %w", err)
	}
	tokens, err := auth.NewJWTService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, auth.WithIssuer(cfg.Auth.TokenIssuer))
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	// The dispatcher outlives the HTTP server so events from in-flight
	// requests are still persisted during shutdown.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuditService(st.audit, log), log)
	dispatcher.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		dispatcher.Wait()
	}()

	authService := service.NewAuthService(st.users, hasher, tokens, log,
		service.WithAccessPolicy(service.AccessPolicy(cfg.Auth.AccessPolicy)),
		service.WithAuditPublisher(dispatcher),
	)

	e, err := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Readiness:   map[string]handler.Pinger{cfg.Store.Backend: st.ping},
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("backend", cfg.Store.Backend).
			Str("access_policy", cfg.Auth.AccessPolicy).
			Msg("server started")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		users := mongostore.NewUserRegistry(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
		return &store{
			users: users,
			ping:  users,
			audit: mongostore.NewAuditRepository(db),
			close: client.Disconnect,
		}, nil

	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		users := redisstore.NewUserRegistry(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		return &store{
			users: users,
			ping:  users,
			audit: redisstore.NewAuditRepository(client),
			close: func(context.Context) error { return client.Close() },
		}, nil

	default:
		users := memory.NewUserRegistry()
		log.Warn().Msg("using in-memory store; users are lost on restart")
		return &store{
			users: users,
			ping:  users,
			audit: memory.NewAuditLog(memory.DefaultAuditCapacity),
			close: func(context.Context) error { return nil },
		}, nil
	}
}
