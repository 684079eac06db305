package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"websiteemas/models"
)

// DefaultPassword is the password given to the seeded accounts. Change it
// after the first login.
const DefaultPassword = "password123"

var defaultUsers = []models.User{
	{Nama: "Administrator", Email: "admin@websiteemas.com", Role: models.RoleAdmin, Keterangan: "Akun administrator default"},
	{Nama: "User Biasa", Email: "user@websiteemas.com", Role: models.RoleUser, Keterangan: "Akun user default"},
}

// Seed creates the default admin and user accounts on an empty users table.
// Once any account exists it does nothing, so a deleted or renamed default
// account is never brought back with DefaultPassword.
func Seed(db *gorm.DB, logg *logrus.Logger) error {
	var existing int64
	if err := db.Model(&models.User{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("seed count users: %w", err)
	}
	if existing > 0 {
		logg.WithField("users", existing).Debug("users present, skipping default accounts")
		return nil
	}
	for _, u := range defaultUsers {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("seed lookup %s: %w", u.Email, err)
		}
		if count > 0 {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := u
		user.Password = string(hash)
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
		logg.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("seeded default account")
	}
	return nil
}
