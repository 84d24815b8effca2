package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tienda/internal/apperrors"
	"tienda/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products ordered by id.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search composes an always-true predicate with one clause per supplied criterion.
// Price bounds are inclusive; the lower bound defaults to zero and the upper
// bound is left open when absent.
func (r *GORMProductRepository) Search(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("1 = 1")

	if filter.Name != nil {
		q = q.Where(`nombre LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(*filter.Name)+"%")
	}
	if filter.Type != nil {
		q = q.Where("tipo = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		q = q.Where("categoria_id = ?", *filter.CategoryID)
	}
	if filter.Available != nil {
		q = q.Where("disponibilidad = ?", *filter.Available)
	}

	minPrice := decimal.Zero
	if filter.MinPrice != nil {
		minPrice = *filter.MinPrice
	}
	q = q.Where("precio >= ?", minPrice)
	if filter.MaxPrice != nil {
		q = q.Where("precio <= ?", *filter.MaxPrice)
	}

	products := []models.Product{}
	if err := q.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d not found: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product and fills in its generated ID.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes the given columns of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d not found for update: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d not found for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
