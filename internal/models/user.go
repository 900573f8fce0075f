// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	DisplayName  string     `json:"display_name" gorm:"size:100"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);default:'customer'"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	// Shipping address as one formatted string, the shape checkout consumes.
	Address     string     `json:"address" gorm:"type:text"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Relationships
	Orders    []Order    `json:"orders,omitempty" gorm:"foreignKey:UserID"`
	CartItems []CartItem `json:"cart_items,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
