package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatusActive marks the cart a user is currently filling.
const CartStatusActive = "activo"

// Cart belongs to a user. A user has at most one cart with Status == CartStatusActive.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    uint       `json:"usuario_id" gorm:"column:usuario_id;not null;index"`
	Status    string     `json:"estado" gorm:"column:estado;type:varchar(20);not null;default:activo"`
	CreatedAt time.Time  `json:"created_at"`
	Lines     []CartLine `json:"-" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

func (Cart) TableName() string { return "carritos" }

// CartLine is a (cart, product, quantity) association. (CartID, ProductID) is unique.
type CartLine struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	CartID    string  `json:"carrito_id" gorm:"column:carrito_id;type:varchar(36);not null;uniqueIndex:idx_carrito_producto"`
	ProductID uint    `json:"producto_id" gorm:"column:producto_id;not null;uniqueIndex:idx_carrito_producto"`
	Quantity  int     `json:"cantidad" gorm:"column:cantidad;not null;check:chk_carrito_productos_cantidad,cantidad > 0"`
	Product   Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (CartLine) TableName() string { return "carrito_productos" }

// CartItem is a cart line joined with its product, as listed to the client.
type CartItem struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"producto_id"`
	Name      string          `json:"nombre"`
	Price     decimal.Decimal `json:"precio"`
	Image     *string         `json:"imagen"`
	Quantity  int             `json:"cantidad"`
}
