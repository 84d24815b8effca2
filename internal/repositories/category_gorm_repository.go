package repositories

import (
	"context"
	"errors"
	"fmt"

	"tienda/internal/apperrors"
	"tienda/internal/models"

	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

func (r *GORMCategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	return categories, nil
}

func (r *GORMCategoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category with ID %d not found: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by ID %d: %w", id, err)
	}
	return &category, nil
}

func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *GORMCategoryRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category with ID %d not found for update: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *GORMCategoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category with ID %d not found for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
