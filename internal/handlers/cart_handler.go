package handlers

import (
	"tienda/internal/middleware"
	"tienda/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles the authenticated user's shopping cart.
type CartHandler struct {
	service  *services.CartService
	tokens   middleware.TokenValidator
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler. tokens authenticates every cart route.
func NewCartHandler(service *services.CartService, tokens middleware.TokenValidator) *CartHandler {
	return &CartHandler{
		service:  service,
		tokens:   tokens,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the cart routes under /carritos.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/carritos", middleware.AuthRequired(h.tokens))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Get("/carrito", h.HandleGetCart)
	cartRoutes.Post("/producto", h.HandleAddItem)
	cartRoutes.Put("/producto", h.HandleUpdateItem)
	cartRoutes.Delete("/producto/:productoId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// CartItemRequest is the body of add and update requests.
type CartItemRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"cantidad"`
}

// HandleGetCart lists the lines of the caller's active cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	items, err := h.service.ListCart(c.UserContext(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// HandleAddItem adds cantidad units of a product, creating the cart when
// the user has none and merging with an existing line for the same product.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	line, err := h.service.AddItem(c.UserContext(), middleware.CurrentUser(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Product added to cart",
		"carrito_id": line.CartID,
	})
}

// HandleUpdateItem sets the quantity of a product already in the cart.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	if err := h.service.UpdateItemQuantity(c.UserContext(), middleware.CurrentUser(c).UserID, req.ProductID, req.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart quantity updated"})
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	productID, err := idParam(c, "productoId")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.RemoveItem(c.UserContext(), middleware.CurrentUser(c).UserID, productID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product removed from cart"})
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.ClearCart(c.UserContext(), middleware.CurrentUser(c).UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}
