package handlers

import (
	"fmt"

	"tienda/internal/apperrors"
	"tienda/internal/middleware"
	"tienda/internal/models"
	"tienda/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// UserHandler handles registration, login and account management.
type UserHandler struct {
	authService *services.AuthService
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, userService *services.UserService) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the user routes under /usuarios. Static paths
// are declared before /:id so they are not captured by it.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	auth := middleware.AuthRequired(h.authService)

	userRoutes := router.Group("/usuarios")
	userRoutes.Post("/", middleware.OptionalAuth(h.authService), h.HandleRegister)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Get("/check-email", h.HandleCheckEmail)
	userRoutes.Get("/perfil", auth, h.HandleProfile)
	userRoutes.Get("/", auth, middleware.AdminOnly(), h.HandleGetUsers)
	userRoutes.Get("/:id", auth, h.HandleGetUserByID)
	userRoutes.Put("/:id", auth, h.HandleUpdateUser)
	userRoutes.Delete("/:id", auth, h.HandleDeleteUser)
}

// HandleRegister handles new user registration. Only an authenticated
// administrator may create another administrator.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var in services.RegisterInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	if in.Role == models.RoleAdmin && !middleware.CurrentUser(c).IsAdmin() {
		return respondError(c, fmt.Errorf("only administrators can create administrators: %w", apperrors.ErrForbidden))
	}

	user, err := h.authService.RegisterUser(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}

	log.Info().Uint("user_id", user.ID).Str("rol", user.Role).Msg("user registered")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks the credentials and issues a JWT token.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Debug().Err(err).Str("email", req.Email).Msg("login failed")
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleCheckEmail answers whether ?email= is still free to register.
func (h *UserHandler) HandleCheckEmail(c *fiber.Ctx) error {
	if err := h.userService.EmailAvailable(c.UserContext(), c.Query("email")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"disponible": true})
}

// HandleProfile returns the caller's own profile.
func (h *UserHandler) HandleProfile(c *fiber.Ctx) error {
	profile, err := h.userService.Profile(c.UserContext(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	id, err := h.accountParam(c)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandleUpdateUser updates the supplied fields of an account. Changing rol
// requires an administrator.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := h.accountParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var in services.UserUpdate
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	if in.Role != nil && !middleware.CurrentUser(c).IsAdmin() {
		return respondError(c, fmt.Errorf("only administrators can change roles: %w", apperrors.ErrForbidden))
	}

	if err := h.userService.UpdateUser(c.UserContext(), id, in); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User updated successfully"})
}

func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := h.accountParam(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.userService.DeleteUser(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// accountParam reads :id and checks that the caller owns that account or is an administrator.
func (h *UserHandler) accountParam(c *fiber.Ctx) (uint, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return 0, err
	}
	claims := middleware.CurrentUser(c)
	if claims.UserID != id && !claims.IsAdmin() {
		return 0, fmt.Errorf("cannot access another user's account: %w", apperrors.ErrForbidden)
	}
	return id, nil
}
