package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/config"
	"github.com/iliyamo/token-manager/internal/database"
	"github.com/iliyamo/token-manager/internal/handler"
	"github.com/iliyamo/token-manager/internal/logger"
	"github.com/iliyamo/token-manager/internal/middleware"
	"github.com/iliyamo/token-manager/internal/queue"
	"github.com/iliyamo/token-manager/internal/router"
	"github.com/iliyamo/token-manager/internal/service"
	"github.com/iliyamo/token-manager/internal/validation"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			zl.Fatal("schema migration failed", zap.Error(err))
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		zl.Warn("redis unavailable, caching and rate limiting disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.Broker.Enabled {
		events = service.NewAMQPPublisher(cfg.Broker.URL, zl)
		if cfg.Broker.AuditEnabled {
			consumer := queue.NewAuditConsumer(cfg.Broker.URL, cfg.Broker.AuditLogPath, zl)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					zl.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	authSvc := service.NewAuthService(db, service.AuthConfig{
		AccessSecret:   cfg.JWTSecret,
		RefreshSecret:  cfg.JWTRefreshSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	}, zl)
	userSvc := service.NewUserService(db, cfg.BcryptCost, events, zl)

	if cfg.AdminEmail != "" {
		created, err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			zl.Fatal("admin bootstrap failed", zap.Error(err))
		}
		if created {
			zl.Info("admin user created", zap.String("email", cfg.AdminEmail))
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = logger.ErrorHandler(zl)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())
	e.Use(logger.RequestLogger(zl))

	router.Register(e, router.Deps{
		Auth:          handler.NewAuthHandler(authSvc, zl),
		Themes:        handler.NewThemeHandler(service.NewThemeService(db, events, zl), zl),
		Groups:        handler.NewGroupHandler(service.NewGroupService(db, events, zl), zl),
		Tokens:        handler.NewTokenHandler(service.NewTokenService(db, events, zl), zl),
		Users:         handler.NewUserHandler(userSvc, zl),
		Authenticator: authSvc,
		Cache:         middleware.NewResponseCache(cfg.Cache, rdb, zl),
		RateLimit:     middleware.NewTokenBucket(cfg.RateLimit, rdb, zl),
		Log:           zl,
	})

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
