package services_test

import (
	"context"
	"fmt"
	"testing"

	"tienda/internal/apperrors"
	"tienda/internal/models"
	"tienda/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CreateCategory(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCategoryRepository)
	service := services.NewCategoryService(mockRepo, new(MockProductRepository))

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Category")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Category).ID = 3
	}).Return(nil).Once()

	category, err := service.CreateCategory(ctx, services.CategoryInput{Name: "Rings", Description: str("Gold and silver")})
	require.NoError(t, err)
	assert.Equal(t, uint(3), category.ID)
	assert.Equal(t, "Rings", category.Name)

	_, err = service.CreateCategory(ctx, services.CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockRepo.AssertExpectations(t)
}

func TestCategoryService_UpdateCategory(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCategoryRepository)
	service := services.NewCategoryService(mockRepo, new(MockProductRepository))

	mockRepo.On("Update", ctx, uint(4), map[string]interface{}{"descripcion": "new"}).Return(nil).Once()
	require.NoError(t, service.UpdateCategory(ctx, 4, services.CategoryUpdate{Description: str("new")}))

	err := service.UpdateCategory(ctx, 4, services.CategoryUpdate{Name: str("")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockRepo.AssertExpectations(t)
}

func TestCategoryService_ListCategoryProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCategoryRepository)
	mockProducts := new(MockProductRepository)
	service := services.NewCategoryService(mockRepo, mockProducts)

	categoryID := uint(2)
	expected := []models.Product{{ID: 8, Name: "Ring", CategoryID: &categoryID}}

	mockRepo.On("GetByID", ctx, categoryID).Return(&models.Category{ID: categoryID, Name: "Rings"}, nil).Once()
	mockProducts.On("Search", ctx, models.ProductFilter{CategoryID: &categoryID}).Return(expected, nil).Once()

	products, err := service.ListCategoryProducts(ctx, categoryID)
	require.NoError(t, err)
	assert.Equal(t, expected, products)

	mockRepo.On("GetByID", ctx, uint(99)).Return(nil, fmt.Errorf("category with ID 99 not found: %w", apperrors.ErrNotFound)).Once()
	_, err = service.ListCategoryProducts(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	mockRepo.AssertExpectations(t)
	mockProducts.AssertExpectations(t)
}
