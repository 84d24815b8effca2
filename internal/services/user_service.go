package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tienda/internal/apperrors"
	"tienda/internal/models"
	"tienda/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// UserUpdate carries the fields of a partial user update. Nil fields are left unchanged.
type UserUpdate struct {
	Name     *string `json:"nombre" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Address  *string `json:"direccion" validate:"omitempty,max=255"`
	Phone    *string `json:"telefono" validate:"omitempty,max=30"`
	Role     *string `json:"rol" validate:"omitempty,oneof=user admin"`
}

// UserService handles user administration and profile lookups.
type UserService struct {
	repo repositories.UserRepository
}

func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Profile returns the public profile of the given user.
func (s *UserService) Profile(ctx context.Context, id uint) (*models.Profile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// EmailAvailable fails with apperrors.ErrConflict when the email is taken.
func (s *UserService) EmailAvailable(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email is required: %w", apperrors.ErrValidation)
	}
	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("email '%s' already registered: %w", email, apperrors.ErrConflict)
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	default:
		return err
	}
}

// UpdateUser writes only the supplied fields. A new password is re-hashed;
// without one the stored hash is kept.
func (s *UserService) UpdateUser(ctx context.Context, id uint, in UserUpdate) error {
	fields := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return fmt.Errorf("nombre must not be empty: %w", apperrors.ErrValidation)
		}
		fields["nombre"] = *in.Name
	}
	if in.Email != nil {
		fields["email"] = strings.TrimSpace(strings.ToLower(*in.Email))
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fields["contrasena"] = string(hashed)
	}
	if in.Address != nil {
		fields["direccion"] = *in.Address
	}
	if in.Phone != nil {
		fields["telefono"] = *in.Phone
	}
	if in.Role != nil {
		fields["rol"] = *in.Role
	}
	return s.repo.Update(ctx, id, fields)
}

func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
