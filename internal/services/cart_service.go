package services

import (
	"context"
	"fmt"

	"tienda/internal/apperrors"
	"tienda/internal/models"
	"tienda/internal/repositories"

	"github.com/rs/zerolog/log"
)

// CartService handles the shopping cart of each user.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	events   EventPublisher
}

// NewCartService creates a new CartService. events may be nil.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, events EventPublisher) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		events:   events,
	}
}

// GetOrCreateCart returns the id of the user's active cart, creating it atomically if missing.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID uint) (string, error) {
	cart, created, err := s.carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		return "", err
	}
	if created {
		log.Info().Uint("user_id", userID).Str("cart_id", cart.ID).Msg("active cart created")
	}
	return cart.ID, nil
}

// AddItem adds quantity units of a product to the user's active cart.
// Adding a product already in the cart increments its quantity.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*models.CartLine, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	cartID, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	line, err := s.carts.AddLine(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, err
	}

	publishEvent(s.events, EventCartItemAdded, map[string]interface{}{
		"user_id":    userID,
		"cart_id":    cartID,
		"product_id": productID,
		"added":      quantity,
		"quantity":   line.Quantity,
	})
	return line, nil
}

// UpdateItemQuantity sets the quantity of a product already in the active cart.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID uint, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	cart, err := s.carts.FindActive(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.carts.SetLineQuantity(ctx, cart.ID, productID, quantity); err != nil {
		return err
	}

	publishEvent(s.events, EventCartItemUpdated, map[string]interface{}{
		"user_id":    userID,
		"cart_id":    cart.ID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return nil
}

// RemoveItem deletes a product from the active cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint) error {
	cart, err := s.carts.FindActive(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.carts.DeleteLine(ctx, cart.ID, productID); err != nil {
		return err
	}

	publishEvent(s.events, EventCartItemRemoved, map[string]interface{}{
		"user_id":    userID,
		"cart_id":    cart.ID,
		"product_id": productID,
	})
	return nil
}

// ListCart returns the lines of the active cart joined with product data.
func (s *CartService) ListCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	cart, err := s.carts.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.carts.ListItems(ctx, cart.ID)
}

// ClearCart removes every line from the active cart.
func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	cart, err := s.carts.FindActive(ctx, userID)
	if err != nil {
		return err
	}
	removed, err := s.carts.ClearLines(ctx, cart.ID)
	if err != nil {
		return err
	}

	publishEvent(s.events, EventCartCleared, map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
		"removed": removed,
	})
	return nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("cantidad must be a positive integer, got %d: %w", quantity, apperrors.ErrValidation)
	}
	return nil
}
