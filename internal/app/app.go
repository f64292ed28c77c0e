package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-user-auth/internal/cache"
	"go-user-auth/internal/config"
	"go-user-auth/internal/database"
	"go-user-auth/internal/handler"
	"go-user-auth/internal/middleware"
	"go-user-auth/internal/repository"
	"go-user-auth/internal/router"
	"go-user-auth/internal/service"
	"go-user-auth/internal/session"
	"go-user-auth/internal/token"
)

type App struct {
	server        *http.Server
	shutdownGrace time.Duration
	cleanupFuncs  []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	redisClient, err := cache.NewClient(cfg.RedisHost, cfg.RedisPort)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	userRepo := repository.NewUserRepository(db.Pool)
	revocations := cache.NewRevocationStore(redisClient)

	accessCodec := token.NewCodec(cfg.JWTSecret, cfg.JWTAccessTTL)
	refreshCodec := token.NewCodec(cfg.JWTRefreshSecret, cfg.CookieMaxAge)
	cookies := session.NewCookieCodec(cfg.CookieName, cfg.CookieSecret, cfg.CookieMaxAge)
	extractor := session.NewExtractor(accessCodec, refreshCodec, cookies)

	authService := service.NewAuthService(userRepo, revocations, accessCodec, refreshCodec, extractor, cookies, cfg.LoginFailDelay)
	userService := service.NewUserService(userRepo)

	adminGate := middleware.NewAdminGate(extractor)

	appRouter := router.New(cfg, adminGate, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(db, revocations),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server:        server,
		shutdownGrace: cfg.ShutdownGrace,
		cleanupFuncs: []func(){
			func() {
				if err := redisClient.Close(); err != nil {
					slog.Warn("closing redis client", "error", err)
				}
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return a.shutdown()
}

// shutdown drains in-flight requests within the grace period, then closes the
// store connections. The deadline guarantees shutdown cannot hang.
func (a *App) shutdown() error {
	grace := a.shutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	err := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
