package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item of the catalog.
type Product struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Name        string           `json:"nombre" gorm:"column:nombre;type:varchar(255);not null"`
	Type        string           `json:"tipo" gorm:"column:tipo;type:varchar(100);not null"`
	Description *string          `json:"descripcion" gorm:"column:descripcion;type:text"`
	Price       decimal.Decimal  `json:"precio" gorm:"column:precio;type:decimal(10,2);not null"`
	CategoryID  *uint            `json:"categoria_id" gorm:"column:categoria_id;index"`
	Material    *string          `json:"material" gorm:"column:material;type:varchar(100)"`
	Color       *string          `json:"color" gorm:"column:color;type:varchar(50)"`
	Weight      *decimal.Decimal `json:"peso" gorm:"column:peso;type:decimal(10,2)"`
	Size        *string          `json:"talla" gorm:"column:talla;type:varchar(20)"`
	Image       *string          `json:"imagen" gorm:"column:imagen;type:varchar(255)"`
	Available   *bool            `json:"disponibilidad" gorm:"column:disponibilidad"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Product) TableName() string { return "productos" }

// ProductFilter narrows a product search. Nil fields are not applied.
type ProductFilter struct {
	Name       *string
	Type       *string
	CategoryID *uint
	Available  *bool
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

// IsEmpty reports whether no criterion was supplied.
func (f ProductFilter) IsEmpty() bool {
	return f.Name == nil && f.Type == nil && f.CategoryID == nil &&
		f.Available == nil && f.MinPrice == nil && f.MaxPrice == nil
}
