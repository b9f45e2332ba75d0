package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"mygallery/auth"
	"mygallery/config"
	"mygallery/db"
	"mygallery/hub"
	"mygallery/logger"
	"mygallery/mailer"
	"mygallery/metrics"
	"mygallery/routes"
	"mygallery/services"
	"mygallery/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("GALLERY_CONFIG"), "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "mygallery:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	gdb, err := db.Open(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	store := db.NewStore(gdb)

	backend, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	log.Info("storage backend ready", zap.String("backend", backend.Name()))

	events := hub.New(log)
	go events.Run(ctx)

	m := metrics.New()
	gallery := services.NewGallery(store, backend, events, m, log)
	gate := auth.NewGate(auth.Credentials{Email: cfg.Admin.Email, Password: cfg.Admin.Password}, cfg.Session, log)

	app := fiber.New(fiber.Config{
		AppName:               "mygallery",
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler:          routes.ErrorHandler(log),
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(log))
	app.Use(m.Middleware())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORSOrigins}))

	routes.SetupRoutes(app, routes.Deps{
		Gallery: gallery,
		Gate:    gate,
		Store:   store,
		Mailer:  mailer.NewSMTP(cfg.SMTP, log),
		Events:  events,
		Metrics: m,
		Server:  cfg.Server,
		Log:     log,
	})

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		errc <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}
