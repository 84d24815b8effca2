package services

import (
	"context"
	"fmt"
	"strings"

	"tienda/internal/apperrors"
	"tienda/internal/models"
	"tienda/internal/repositories"

	"github.com/shopspring/decimal"
)

// ProductInput is the payload of a product creation.
type ProductInput struct {
	Name        string           `json:"nombre" validate:"required,max=255"`
	Type        string           `json:"tipo" validate:"required,max=100"`
	Description *string          `json:"descripcion"`
	Price       *decimal.Decimal `json:"precio" validate:"required"`
	CategoryID  *uint            `json:"categoria_id"`
	Material    *string          `json:"material" validate:"omitempty,max=100"`
	Color       *string          `json:"color" validate:"omitempty,max=50"`
	Weight      *decimal.Decimal `json:"peso"`
	Size        *string          `json:"talla" validate:"omitempty,max=20"`
	Image       *string          `json:"imagen" validate:"omitempty,max=255"`
	Available   *bool            `json:"disponibilidad"`
}

// ProductUpdate carries the fields of a partial product update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string          `json:"nombre" validate:"omitempty,max=255"`
	Type        *string          `json:"tipo" validate:"omitempty,max=100"`
	Description *string          `json:"descripcion"`
	Price       *decimal.Decimal `json:"precio"`
	CategoryID  *uint            `json:"categoria_id"`
	Material    *string          `json:"material" validate:"omitempty,max=100"`
	Color       *string          `json:"color" validate:"omitempty,max=50"`
	Weight      *decimal.Decimal `json:"peso"`
	Size        *string          `json:"talla" validate:"omitempty,max=20"`
	Image       *string          `json:"imagen" validate:"omitempty,max=255"`
	Available   *bool            `json:"disponibilidad"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns every product when filter is empty. A filtered search
// with no match fails with apperrors.ErrNotFound.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	if filter.IsEmpty() {
		return s.repo.GetAll(ctx)
	}
	if filter.MinPrice != nil && filter.MinPrice.IsNegative() {
		return nil, fmt.Errorf("precio_min must not be negative: %w", apperrors.ErrValidation)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, fmt.Errorf("precio_min is greater than precio_max: %w", apperrors.ErrValidation)
	}

	products, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no products match the search: %w", apperrors.ErrNotFound)
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product. nombre, tipo and precio must be present and non-zero.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Type) == "" || in.Price == nil || in.Price.IsZero() {
		return nil, fmt.Errorf("nombre, tipo and precio are required: %w", apperrors.ErrValidation)
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		Price:       *in.Price,
		CategoryID:  in.CategoryID,
		Material:    in.Material,
		Color:       in.Color,
		Weight:      in.Weight,
		Size:        in.Size,
		Image:       in.Image,
		Available:   in.Available,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct writes only the supplied fields of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, in ProductUpdate) error {
	fields := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return fmt.Errorf("nombre must not be empty: %w", apperrors.ErrValidation)
		}
		fields["nombre"] = *in.Name
	}
	if in.Type != nil {
		if strings.TrimSpace(*in.Type) == "" {
			return fmt.Errorf("tipo must not be empty: %w", apperrors.ErrValidation)
		}
		fields["tipo"] = *in.Type
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
		fields["precio"] = *in.Price
	}
	if in.Description != nil {
		fields["descripcion"] = *in.Description
	}
	if in.CategoryID != nil {
		fields["categoria_id"] = *in.CategoryID
	}
	if in.Material != nil {
		fields["material"] = *in.Material
	}
	if in.Color != nil {
		fields["color"] = *in.Color
	}
	if in.Weight != nil {
		fields["peso"] = *in.Weight
	}
	if in.Size != nil {
		fields["talla"] = *in.Size
	}
	if in.Image != nil {
		fields["imagen"] = *in.Image
	}
	if in.Available != nil {
		fields["disponibilidad"] = *in.Available
	}
	return s.repo.Update(ctx, id, fields)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return fmt.Errorf("precio must be greater than zero: %w", apperrors.ErrValidation)
	}
	return nil
}
