// Package server assembles the Fiber application: middleware, health check,
// static images, API docs and every resource's routes.
package server

import (
	"errors"
	"os"
	"time"

	"tienda/internal/apperrors"
	"tienda/internal/database"
	"tienda/internal/handlers"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// Deps is everything New needs to build the application.
type Deps struct {
	AppName     string
	DB          *gorm.DB
	Products    *handlers.ProductHandler
	Categories  *handlers.CategoryHandler
	Users       *handlers.UserHandler
	Carts       *handlers.CartHandler
	ImagesDir   string
	SwaggerFile string
	// AccessLog enables Fiber's request logger.
	AccessLog bool
}

// New returns a ready to listen *fiber.App.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      deps.AppName,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(logger.New())
	}

	if deps.SwaggerFile != "" {
		if _, err := os.Stat(deps.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: deps.SwaggerFile,
				Path:     "docs",
				Title:    deps.AppName,
			}))
		} else {
			log.Warn().Str("file", deps.SwaggerFile).Msg("swagger file not found, /docs disabled")
		}
	}

	app.Get("/health", healthHandler(deps.DB))

	if deps.ImagesDir != "" {
		app.Static("/imagenes", deps.ImagesDir, fiber.Static{Browse: false})
	}

	deps.Products.RegisterRoutes(app)
	deps.Categories.RegisterRoutes(app)
	deps.Users.RegisterRoutes(app)
	deps.Carts.RegisterRoutes(app)

	return app
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, dbStatus, code := "healthy", "connected", fiber.StatusOK
		if err := database.Ping(c.UserContext(), db, healthTimeout); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			status, dbStatus, code = "unhealthy", "unreachable", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
		})
	}
}

// errorHandler shapes errors that escape handlers, such as unknown routes
// and recovered panics, as {"message": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	return c.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"message": apperrors.Message(err)})
}
