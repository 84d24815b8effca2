package handlers

import (
	"fmt"
	"strconv"

	"tienda/internal/apperrors"
	"tienda/internal/models"
	"tienda/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes under /productos.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/productos")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts lists the catalog, optionally filtered by the query
// parameters nombre, tipo, categoria_id, disponibilidad, precio_min and precio_max.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	filter, err := productFilterFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	products, err := h.service.ListProducts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates the supplied fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var in services.ProductUpdate
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	if err := h.service.UpdateProduct(c.UserContext(), id, in); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated successfully"})
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

func productFilterFromQuery(c *fiber.Ctx) (models.ProductFilter, error) {
	var filter models.ProductFilter

	if v := c.Query("nombre"); v != "" {
		filter.Name = &v
	}
	if v := c.Query("tipo"); v != "" {
		filter.Type = &v
	}
	if v := c.Query("categoria_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("categoria_id must be an integer: %w", apperrors.ErrValidation)
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}
	if v := c.Query("disponibilidad"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("disponibilidad must be true or false: %w", apperrors.ErrValidation)
		}
		filter.Available = &available
	}

	var err error
	if filter.MinPrice, err = decimalQuery(c, "precio_min"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = decimalQuery(c, "precio_max"); err != nil {
		return filter, err
	}
	return filter, nil
}

func decimalQuery(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number: %w", key, apperrors.ErrValidation)
	}
	return &d, nil
}
