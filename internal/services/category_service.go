package services

import (
	"context"
	"fmt"
	"strings"

	"tienda/internal/apperrors"
	"tienda/internal/models"
	"tienda/internal/repositories"
)

// CategoryInput is the payload of a category creation.
type CategoryInput struct {
	Name        string  `json:"nombre" validate:"required,max=100"`
	Description *string `json:"descripcion"`
}

// CategoryUpdate carries the fields of a partial category update.
type CategoryUpdate struct {
	Name        *string `json:"nombre" validate:"omitempty,max=100"`
	Description *string `json:"descripcion"`
}

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo     repositories.CategoryRepository
	products repositories.ProductRepository
}

func NewCategoryService(repo repositories.CategoryRepository, products repositories.ProductRepository) *CategoryService {
	return &CategoryService{repo: repo, products: products}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.GetAll(ctx)
}

func (s *CategoryService) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("nombre is required: %w", apperrors.ErrValidation)
	}
	category := &models.Category{Name: in.Name, Description: in.Description}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, in CategoryUpdate) error {
	fields := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return fmt.Errorf("nombre must not be empty: %w", apperrors.ErrValidation)
		}
		fields["nombre"] = *in.Name
	}
	if in.Description != nil {
		fields["descripcion"] = *in.Description
	}
	return s.repo.Update(ctx, id, fields)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// ListCategoryProducts returns the products referencing an existing category.
func (s *CategoryService) ListCategoryProducts(ctx context.Context, id uint) ([]models.Product, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.products.Search(ctx, models.ProductFilter{CategoryID: &id})
}
