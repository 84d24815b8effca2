package repositories

import (
	"context"
	"errors"
	"fmt"

	"tienda/internal/apperrors"
	"tienda/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// activeCartConflict targets the partial unique index on (usuario_id) WHERE estado = 'activo'.
// The predicate is inlined so PostgreSQL can infer the index at plan time.
var activeCartConflict = clause.OnConflict{
	Columns:     []clause.Column{{Name: "usuario_id"}},
	TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "estado = '" + models.CartStatusActive + "'"}}},
	DoNothing:   true,
}

// GetOrCreateActive inserts a candidate cart that the unique index silently
// rejects when the user already has one, then reads back the surviving row.
// An unknown user is apperrors.ErrNotFound.
func (r *GORMCartRepository) GetOrCreateActive(ctx context.Context, userID uint) (*models.Cart, bool, error) {
	var (
		cart    models.Cart
		created bool
	)
	userMissing := fmt.Errorf("user with ID %d not found: %w", userID, apperrors.ErrNotFound)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return userMissing
		}

		candidate := models.Cart{ID: uuid.NewString(), UserID: userID, Status: models.CartStatusActive}
		res := tx.Omit(clause.Associations).Clauses(activeCartConflict).Create(&candidate)
		if res.Error != nil {
			// The user was deleted between the check and the insert.
			if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
				return userMissing
			}
			return res.Error
		}
		created = res.RowsAffected == 1
		return tx.Where("usuario_id = ? AND estado = ?", userID, models.CartStatusActive).First(&cart).Error
	})
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create cart for user %d: %w", userID, err)
	}
	return &cart, created, nil
}

// FindActive returns the user's active cart.
func (r *GORMCartRepository) FindActive(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("usuario_id = ? AND estado = ?", userID, models.CartStatusActive).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active cart for user %d not found: %w", userID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find cart for user %d: %w", userID, err)
	}
	return &cart, nil
}

// AddLine upserts on (carrito_id, producto_id) so repeated adds are additive.
func (r *GORMCartRepository) AddLine(ctx context.Context, cartID string, productID uint, quantity int) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := models.CartLine{CartID: cartID, ProductID: productID, Quantity: quantity}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "carrito_id"}, {Name: "producto_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"cantidad": gorm.Expr("carrito_productos.cantidad + excluded.cantidad"),
			}),
		}).Create(&candidate).Error
		if err != nil {
			return err
		}
		return tx.Where("carrito_id = ? AND producto_id = ?", cartID, productID).First(&line).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add product %d to cart %s: %w", productID, cartID, err)
	}
	return &line, nil
}

// SetLineQuantity overwrites the quantity of an existing line.
func (r *GORMCartRepository) SetLineQuantity(ctx context.Context, cartID string, productID uint, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartLine{}).
		Where("carrito_id = ? AND producto_id = ?", cartID, productID).
		Update("cantidad", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update product %d in cart %s: %w", productID, cartID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d not in cart %s: %w", productID, cartID, apperrors.ErrNotFound)
	}
	return nil
}

// DeleteLine removes exactly one (cart, product) pair.
func (r *GORMCartRepository) DeleteLine(ctx context.Context, cartID string, productID uint) error {
	res := r.db.WithContext(ctx).
		Where("carrito_id = ? AND producto_id = ?", cartID, productID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove product %d from cart %s: %w", productID, cartID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d not in cart %s: %w", productID, cartID, apperrors.ErrNotFound)
	}
	return nil
}

// ClearLines removes every line of the cart and reports how many were deleted.
func (r *GORMCartRepository) ClearLines(ctx context.Context, cartID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("carrito_id = ?", cartID).Delete(&models.CartLine{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear cart %s: %w", cartID, res.Error)
	}
	return res.RowsAffected, nil
}

// ListItems returns the cart lines joined with their products in insertion order.
func (r *GORMCartRepository) ListItems(ctx context.Context, cartID string) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := r.db.WithContext(ctx).
		Table("carrito_productos AS cp").
		Select("cp.id AS id, cp.producto_id AS product_id, p.nombre AS name, p.precio AS price, p.imagen AS image, cp.cantidad AS quantity").
		Joins("JOIN productos p ON p.id = cp.producto_id").
		Where("cp.carrito_id = ?", cartID).
		Order("cp.id").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart %s: %w", cartID, err)
	}
	return items, nil
}
