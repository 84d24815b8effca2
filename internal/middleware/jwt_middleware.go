package middleware

import (
	"context"
	"strings"

	"tienda/internal/apperrors"
	"tienda/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// localClaims is the fiber.Ctx Locals key holding the verified *services.Claims.
const localClaims = "claims"

// TokenValidator verifies bearer tokens against the current state of their
// user. *services.AuthService satisfies it.
type TokenValidator interface {
	Authenticate(ctx context.Context, tokenString string) (*services.Claims, error)
}

// AuthRequired rejects requests without a bearer token (401) or with an
// invalid, expired or orphaned one (403). Verified claims are stored for CurrentUser.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Access denied. Token not provided",
			})
		}

		claims, err := validator.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			if status := apperrors.StatusCode(err); status != fiber.StatusForbidden {
				log.Error().Err(err).Str("path", c.Path()).Msg("token authentication failed")
				return c.Status(status).JSON(fiber.Map{"message": apperrors.Message(err)})
			}
			log.Debug().Err(err).Str("path", c.Path()).Msg("JWT validation failed")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(localClaims, claims)
		return c.Next()
	}
}

// OptionalAuth stores the claims of a valid bearer token when one is sent and
// otherwise lets the request through anonymously.
func OptionalAuth(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := validator.Authenticate(c.UserContext(), tokenString); err == nil {
				c.Locals(localClaims, claims)
			}
		}
		return c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentUser(c).IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Administrator role required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the claims stored by AuthRequired or OptionalAuth, or nil.
func CurrentUser(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(localClaims).(*services.Claims)
	return claims
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
