package models

import (
	"time"
)

// User is an admin-panel account. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID         uint      `gorm:"column:id_user;primaryKey" json:"id_user"`
	Nama       string    `gorm:"column:nama;size:100;not null" json:"nama"`
	Email      string    `gorm:"column:email;size:100;not null;uniqueIndex" json:"email"`
	Password   string    `gorm:"column:password;size:255;not null" json:"-"`
	Role       string    `gorm:"column:role;size:10;not null;default:user;index" json:"role"`
	Keterangan string    `gorm:"column:keterangan;type:text" json:"keterangan"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
