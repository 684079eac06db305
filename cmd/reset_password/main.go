package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
)

// Sets a new password and logs the user out everywhere.
func main() {
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("--email and --password are required")
	}
	if len(*password) < 6 {
		log.Fatal("password too short (min 6)")
	}

	cfg, err := config.LoadTool()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database, gormlogger.Discard)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(*email))).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	var revoked int64
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", string(hash)).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Session{}).Where("user_id = ? AND revoked = ?", user.ID, false).Update("revoked", true)
		revoked = res.RowsAffected
		return res.Error
	})
	if err != nil {
		log.Fatalf("update failed: %v", err)
	}
	fmt.Printf("Password reset for %s (%d sessions revoked)\n", user.Email, revoked)
}
