package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/validate"
)

const minPasswordLen = 6

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordTooShort   = fmt.Errorf("password too short (min %d)", minPasswordLen)
	ErrWrongPassword      = errors.New("old password does not match")
	ErrUserNotFound       = errors.New("user not found")
)

// dummyHash is compared against when the email is unknown so a failed login
// costs the same either way.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return h
})

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrPasswordTooShort
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// newUser is the input for creating an account.
type newUser struct {
	Nama       string
	Email      string
	Password   string
	Role       string
	Keterangan string
}

// RegisterUser validates and stores a new account. The caller decides the
// role; public registration always passes models.RoleUser.
func RegisterUser(ctx context.Context, db *gorm.DB, in newUser) (models.User, error) {
	in.Nama = strings.TrimSpace(in.Nama)
	in.Email = normalizeEmail(in.Email)
	if !validate.Email(in.Email) {
		return models.User{}, ErrInvalidEmail
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	// pre-check existing (optimistic)
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return models.User{}, err
	}
	if count > 0 {
		return models.User{}, ErrEmailTaken
	}
	user := models.User{Nama: in.Nama, Email: in.Email, Password: hash, Role: in.Role, Keterangan: in.Keterangan}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race after the pre-check
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password both return ErrInvalidCredentials.
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the hash after verifying the old password and
// revokes every other session of the user. keepSession stays valid.
func ChangePassword(ctx context.Context, db *gorm.DB, userID uint, keepSession, oldPassword, newPassword string) error {
	var user models.User
	if err := db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", hash).Error; err != nil {
			return err
		}
		return revokeOtherSessions(tx, user.ID, keepSession)
	})
}

// revokeOtherSessions ends every live session of userID except keep.
func revokeOtherSessions(tx *gorm.DB, userID uint, keep string) error {
	return tx.Model(&models.Session{}).
		Where("user_id = ? AND id <> ? AND revoked = ?", userID, keep, false).
		Update("revoked", true).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "Duplicate entry") ||
		strings.Contains(s, "UNIQUE constraint failed") || strings.Contains(s, "unique constraint")
}
