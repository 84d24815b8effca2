package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer or an administrator of the store.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nombre" gorm:"column:nombre;type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"column:email;uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"column:contrasena;type:varchar(255);not null"` // bcrypt hash, never serialized
	Address   *string   `json:"direccion" gorm:"column:direccion;type:varchar(255)"`
	Phone     *string   `json:"telefono" gorm:"column:telefono;type:varchar(30)"`
	Role      string    `json:"rol" gorm:"column:rol;type:varchar(20);not null;default:user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Carts     []Cart    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "usuarios" }

// Profile is the subset of a user returned by GET /usuarios/perfil.
type Profile struct {
	ID      uint    `json:"id"`
	Name    string  `json:"nombre"`
	Email   string  `json:"email"`
	Address *string `json:"direccion"`
	Phone   *string `json:"telefono"`
	Role    string  `json:"rol"`
}

// Profile returns the public profile of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Address: u.Address, Phone: u.Phone, Role: u.Role}
}
