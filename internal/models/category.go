package models

// Category groups products. Products reference it without cascade rules.
type Category struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"nombre" gorm:"column:nombre;type:varchar(100);not null"`
	Description *string `json:"descripcion" gorm:"column:descripcion;type:text"`
}

func (Category) TableName() string { return "categorias" }
