package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleSender    UserRole = "sender"
	UserRoleTraveller UserRole = "traveller"
	UserRoleAdmin     UserRole = "admin"
)

type User struct {
	gorm.Model
	Email          string   `json:"email" gorm:"column:email;unique;not null"`
	Name           string   `json:"name" gorm:"column:name;not null"`
	Password       string   `json:"-" gorm:"-"` // scratch field, only the hash is persisted
	PasswordHash   string   `json:"-" gorm:"column:password_hash;not null"`
	Role           UserRole `json:"role" gorm:"column:role;not null"`
	ProfilePicture string   `json:"profilePicture" gorm:"column:profile_picture"`
	Active         bool     `json:"active" gorm:"column:active;default:true"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
