package handlers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"tienda/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// respondError maps err onto its HTTP status and writes {"message": ...}.
// Unexpected errors are logged and reported without detail.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Str("path", c.Path()).Msg("request rejected")
	}
	return c.Status(status).JSON(fiber.Map{"message": apperrors.Message(err)})
}

func invalidBody(c *fiber.Ctx, err error) error {
	log.Debug().Err(err).Str("path", c.Path()).Msg("error parsing request body")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
	})
}

// validationFailed reports validator/v10 failures as a field -> message map.
func validationFailed(c *fiber.Ctx, err error) error {
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// bind parses the JSON body into dst and validates it. When ok is false the
// 400 response has already been written and err is the result of writing it.
func bind(c *fiber.Ctx, validate *validator.Validate, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, invalidBody(c, err)
	}
	if err := validate.Struct(dst); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

// idParam reads a positive integer path parameter.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s must be a positive integer: %w", name, apperrors.ErrValidation)
	}
	return uint(id), nil
}

// newValidator uses json tag names in validation messages so clients see
// the fields they sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
