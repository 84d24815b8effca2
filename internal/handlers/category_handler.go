package handlers

import (
	"tienda/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the category routes under /categorias.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categorias")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Get("/:id", h.HandleGetCategoryByID)
	categoryRoutes.Get("/:id/productos", h.HandleGetCategoryProducts)
	categoryRoutes.Post("/", h.HandleCreateCategory)
	categoryRoutes.Put("/:id", h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", h.HandleDeleteCategory)
}

func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleGetCategoryByID(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	category, err := h.service.GetCategoryByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// HandleGetCategoryProducts lists the products of one category. An unknown
// category is a 404; a known one without products is an empty array.
func (h *CategoryHandler) HandleGetCategoryProducts(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	products, err := h.service.ListCategoryProducts(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var in services.CategoryInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	category, err := h.service.CreateCategory(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var in services.CategoryUpdate
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	if err := h.service.UpdateCategory(c.UserContext(), id, in); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category updated successfully"})
}

func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.DeleteCategory(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}
