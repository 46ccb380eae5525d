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

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"coffeeshop/internal/audit"
	"coffeeshop/internal/auth"
	"coffeeshop/internal/catalog"
	"coffeeshop/internal/config"
	"coffeeshop/internal/handlers"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/mailer"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/notify"
	"coffeeshop/internal/routes"
	"coffeeshop/internal/session"
	"coffeeshop/internal/shop"
	"coffeeshop/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ configuration: %v", err)
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("❌ server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer backend.Close()
	lg.Info("✅ storage ready", zap.String("driver", cfg.Driver))

	trail, err := audit.NewTrail(lg)
	if err != nil {
		return err
	}
	defer trail.Close()

	if cfg.SMTP.Enabled() {
		m, err := mailer.New(cfg.SMTP, nil, lg)
		if err != nil {
			return err
		}
		if err := m.Subscribe(trail); err != nil {
			return err
		}
		lg.Info("✅ order receipts enabled", zap.String("smtp", cfg.SMTP.Host))
	}

	// with redis in play every instance sees every cart change
	var notifier notify.Notifier = notify.NewLocal()
	if rb, ok := backend.(interface{ Client() *redis.Client }); ok {
		notifier = notify.NewRedis(rb.Client(), lg)
	}

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return err
	}
	opts := shop.Options{
		Logger:   lg,
		Recorder: trail,
		Hasher:   auth.NewHasher(auth.DefaultParams),
		Node:     node,
		Admin: &session.AdminAccount{
			Username: cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		},
	}
	if cfg.Catalog.SeedFile != "" {
		if opts.Seed, err = catalog.LoadSeedFile(cfg.Catalog.SeedFile); err != nil {
			return err
		}
		lg.Info("✅ catalog seed loaded", zap.String("file", cfg.Catalog.SeedFile), zap.Int("products", len(opts.Seed)))
	}

	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	h := handlers.New(handlers.Deps{
		Store:    storage.New(backend, storage.WithLogger(lg)),
		Shop:     opts,
		Notifier: notifier,
		Tokens:   tokens,
		Origins:  cfg.CORS,
		Logger:   lg,
	})

	if cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	profile := middleware.Profile(middleware.NewCookieStore(cfg.Session.Secret), cfg.Session.Name, tokens, lg)
	routes.RegisterRoutes(r, h, profile, cfg.CORS)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		lg.Info("🚀 coffee shop listening", zap.String("port", cfg.Port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("🛑 shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
