package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	gormlogger "gorm.io/gorm/logger"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/validate"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <email> <password> [admin|user] [nama]")
		os.Exit(2)
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[1]))
	password := os.Args[2]
	role := models.RoleUser
	if len(os.Args) > 3 {
		role = strings.ToLower(os.Args[3])
	}
	nama := strings.SplitN(email, "@", 2)[0]
	if len(os.Args) > 4 {
		nama = strings.Join(os.Args[4:], " ")
	}

	if !validate.Email(email) {
		log.Fatalf("invalid email %q", email)
	}
	if !models.ValidRole(role) {
		log.Fatalf("invalid role %q (admin or user)", role)
	}
	if len(password) < 6 {
		log.Fatal("password too short (min 6)")
	}

	cfg, err := config.LoadTool()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database, gormlogger.Discard)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", email, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Nama: nama, Email: email, Password: string(hpw), Role: role}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created %s %s id=%d\n", role, email, user.ID)
}
