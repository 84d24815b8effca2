package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"tienda/internal/config"
	"tienda/internal/database"
	"tienda/internal/handlers"
	"tienda/internal/repositories"
	"tienda/internal/server"
	"tienda/internal/services"
	"tienda/pkg/logger"
	"tienda/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	appLog.Info().Str("env", cfg.App.Env).Str("app", cfg.App.Name).Msg("configuration loaded")

	// --- Database ---
	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// --- RabbitMQ (optional) ---
	var (
		events   services.EventPublisher
		mqClient *rabbitmq.Client
	)
	if cfg.RabbitMQ.Enabled() {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		events = mqClient

		if cfg.RabbitMQ.AuditConsumer {
			if err := mqClient.ConsumeEvents(rabbitmq.AuditQueue, "#", rabbitmq.AuditHandler); err != nil {
				log.Error().Err(err).Msg("failed to start audit consumer")
			}
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set, domain events disabled")
	}

	app := newApp(cfg, db, events)

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	if err := serve(app, cfg.HTTP.Addr(), quit); err != nil {
		log.Error().Err(err).Msg("HTTP server stopped")
		exitCode = 1
	}

	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing RabbitMQ client")
		}
	}
	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("error closing database")
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	log.Info().Msg("server gracefully stopped")
}

// serve runs app on addr until a signal arrives on quit, then drains it.
// A listener failure is returned immediately.
func serve(app *fiber.App, addr string, quit <-chan os.Signal) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(ctx)
	}
}

// newApp wires repositories, services and handlers onto db. events may be nil.
func newApp(cfg *config.Config, db *gorm.DB, events services.EventPublisher) *fiber.App {
	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)

	// --- Services ---
	productService := services.NewProductService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo, productRepo)
	cartService := services.NewCartService(cartRepo, productRepo, events)
	authService := services.NewAuthService(userRepo, cartService, events, cfg.JWT.Secret, cfg.JWT.TTL)
	userService := services.NewUserService(userRepo)

	// --- Handlers ---
	return server.New(server.Deps{
		AppName:     cfg.App.Name,
		DB:          db,
		Products:    handlers.NewProductHandler(productService),
		Categories:  handlers.NewCategoryHandler(categoryService),
		Users:       handlers.NewUserHandler(authService, userService),
		Carts:       handlers.NewCartHandler(cartService, authService),
		ImagesDir:   cfg.Static.ImagesDir,
		SwaggerFile: cfg.App.SwaggerFile,
		AccessLog:   cfg.App.Env != "test",
	})
}
