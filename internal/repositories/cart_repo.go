package repositories

import (
	"context"

	"tienda/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetOrCreateActive returns the user's active cart, creating it if needed.
	// It is atomic per user: concurrent callers observe the same cart.
	GetOrCreateActive(ctx context.Context, userID uint) (cart *models.Cart, created bool, err error)
	FindActive(ctx context.Context, userID uint) (*models.Cart, error)
	// AddLine inserts the line or increments its quantity by quantity.
	AddLine(ctx context.Context, cartID string, productID uint, quantity int) (*models.CartLine, error)
	SetLineQuantity(ctx context.Context, cartID string, productID uint, quantity int) error
	DeleteLine(ctx context.Context, cartID string, productID uint) error
	ClearLines(ctx context.Context, cartID string) (int64, error)
	ListItems(ctx context.Context, cartID string) ([]models.CartItem, error)
}
