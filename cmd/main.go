package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bugzero-api/internal/config"
	"bugzero-api/internal/database"
	"bugzero-api/internal/handler"
	"bugzero-api/internal/logger"
	"bugzero-api/internal/middleware"
	"bugzero-api/internal/service"
	"bugzero-api/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := database.InitDB(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close(db)

	tokens := util.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	accounts := service.NewAccountService(db)
	ledger := service.NewUsageLedger(db)
	quota := service.NewQuotaPolicy(service.PlanLimitsFromConfig(cfg.Plans), ledger)

	// Sheets sync is optional; a nil syncer leaves wishlist entries in the database only.
	var syncer service.WishlistSyncer
	sheetSync, err := service.NewSheetSyncService(context.Background(), cfg.Sheets, log)
	if err != nil {
		return fmt.Errorf("init sheets sync: %w", err)
	}
	if sheetSync != nil {
		syncer = sheetSync
	}

	h := handler.New(handler.Deps{
		Accounts: accounts,
		Builds:   service.NewBuildService(db),
		Ledger:   ledger,
		Quota:    quota,
		Agent:    service.NewAgentProxy(cfg.Agent, quota, ledger, log),
		Wishlist: service.NewWishlistService(db, syncer, log),
		OpLog:    service.NewOperationLogger(db),
		Tokens:   tokens,
		Log:      log,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		ErrorHandler: handler.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	// fiber rejects credentials with a wildcard origin
	origins := strings.Join(cfg.HTTP.CORSAllowOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: origins != "" && origins != "*",
	}))
	if cfg.HTTP.RateLimitEnabled {
		app.Use(middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, log).Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group(strings.TrimRight(cfg.App.APIPrefix, "/") + "/v0")
	h.Register(api, middleware.Auth(tokens, accounts))

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", cfg.Addr()),
			zap.String("env", cfg.App.Env))
		errCh <- app.Listen(cfg.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(10 * time.Second)
}
