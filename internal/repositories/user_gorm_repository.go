package repositories

import (
	"context"
	"errors"
	"fmt"

	"tienda/internal/apperrors"
	"tienda/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user. A duplicate email fails with apperrors.ErrConflict.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email '%s' already registered: %w", user.Email, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetAll retrieves every user ordered by id.
func (r *GORMUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %d not found: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// Update writes only the given columns. Changing the email to one already in
// use fails with apperrors.ErrConflict.
func (r *GORMUserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email already registered: %w", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %d not found for update: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes a user and their carts.
func (r *GORMUserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Cart{}, "usuario_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete carts of user %d: %w", id, err)
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %d not found for deletion: %w", id, apperrors.ErrNotFound)
		}
		return nil
	})
}
