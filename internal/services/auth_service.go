package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tienda/internal/apperrors"
	"tienda/internal/models"
	"tienda/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the verified contents of a bearer token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"rol"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token belongs to an administrator.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == models.RoleAdmin
}

// CartProvisioner creates the active cart of a new user.
type CartProvisioner interface {
	GetOrCreateCart(ctx context.Context, userID uint) (string, error)
}

// RegisterInput is the payload of a signup.
type RegisterInput struct {
	Name     string  `json:"nombre" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Address  *string `json:"direccion" validate:"omitempty,max=255"`
	Phone    *string `json:"telefono" validate:"omitempty,max=30"`
	Role     string  `json:"rol" validate:"omitempty,oneof=user admin"`
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	userRepo  repositories.UserRepository
	carts     CartProvisioner
	events    EventPublisher
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new AuthService. carts and events may be nil.
func NewAuthService(userRepo repositories.UserRepository, carts CartProvisioner, events EventPublisher, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		carts:     carts,
		events:    events,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// RegisterUser stores a new user with a hashed password and provisions their active cart.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("nombre, email and password are required: %w", apperrors.ErrValidation)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, fmt.Errorf("email '%s' already registered: %w", email, apperrors.ErrConflict)
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Name:     in.Name,
		Email:    email,
		Password: string(hashedPassword),
		Address:  in.Address,
		Phone:    in.Phone,
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.carts != nil {
		// AddItem provisions the cart again on first use if this fails.
		if cartID, err := s.carts.GetOrCreateCart(ctx, user.ID); err != nil {
			log.Warn().Err(err).Uint("user_id", user.ID).Msg("could not provision cart at signup")
		} else {
			log.Debug().Uint("user_id", user.ID).Str("cart_id", cartID).Msg("cart provisioned")
		}
	}

	publishEvent(s.events, EventUserRegistered, map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// LoginUser checks the credentials and returns a signed bearer token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}

	return s.IssueToken(user)
}

// IssueToken signs a token carrying the user's id, email and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies a token. Malformed, tampered or expired
// tokens fail with apperrors.ErrForbidden.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v: %w", err, apperrors.ErrForbidden)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrForbidden)
	}
	return claims, nil
}

// Authenticate validates tokenString and reloads its user, so a deleted
// account is rejected and a changed role applies before the token expires.
// Unknown users fail with apperrors.ErrForbidden.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("user %d of token no longer exists: %w", claims.UserID, apperrors.ErrForbidden)
		}
		return nil, err
	}
	claims.Email = user.Email
	claims.Role = user.Role
	return claims, nil
}
