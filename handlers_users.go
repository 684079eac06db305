package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/validate"
)

const msgInvalidUserID = "ID user tidak valid"

func (s *server) listUsersHandler(c *gin.Context) {
	var users []models.User
	if err := s.db.WithContext(c.Request.Context()).Order("id_user DESC").Find(&users).Error; err != nil {
		s.respondServerError(c, "listUsersHandler", "Gagal mengambil data users", err)
		return
	}
	respondList(c, users)
}

func (s *server) getUserHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidUserID)
	if !ok {
		return
	}
	var user models.User
	if !s.findByID(c, &user, id, "User tidak ditemukan", "getUserHandler") {
		return
	}
	respondOK(c, "", user)
}

type userRequest struct {
	Nama       string `json:"nama"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role" binding:"role"`
	Keterangan string `json:"keterangan"`
}

func (s *server) createUserHandler(c *gin.Context) {
	var req userRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	if strings.TrimSpace(req.Nama) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Nama, email, dan password harus diisi")
		return
	}
	user, err := RegisterUser(c.Request.Context(), s.db, newUser{
		Nama:       req.Nama,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Keterangan: req.Keterangan,
	})
	if err != nil {
		if msg, ok := userInputError(err, "Password minimal 6 karakter", "Email sudah terdaftar"); ok {
			respondError(c, http.StatusBadRequest, msg)
			return
		}
		s.respondServerError(c, "createUserHandler", "Gagal menambahkan user", err)
		return
	}
	respondCreated(c, "User berhasil ditambahkan", user)
}

func (s *server) updateUserHandler(c *gin.Context, sess *Session) {
	id, ok := parseID(c, msgInvalidUserID)
	if !ok {
		return
	}
	var req userRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	req.Nama = strings.TrimSpace(req.Nama)
	req.Email = normalizeEmail(req.Email)
	if req.Nama == "" || req.Email == "" {
		respondError(c, http.StatusBadRequest, "Nama dan email harus diisi")
		return
	}
	if !validate.Email(req.Email) {
		respondError(c, http.StatusBadRequest, "Format email tidak valid")
		return
	}
	var user models.User
	if !s.findByID(c, &user, id, "User tidak ditemukan", "updateUserHandler") {
		return
	}
	ctx := c.Request.Context()
	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id_user <> ?", req.Email, id).Count(&taken).Error; err != nil {
		s.respondServerError(c, "updateUserHandler", "Gagal mengupdate user", err)
		return
	}
	if taken > 0 {
		respondError(c, http.StatusBadRequest, "Email sudah digunakan oleh user lain")
		return
	}
	updates := map[string]any{
		"nama":       req.Nama,
		"email":      req.Email,
		"keterangan": req.Keterangan,
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	resetPassword := strings.TrimSpace(req.Password) != ""
	if resetPassword {
		hash, err := hashPassword(req.Password)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Password minimal 6 karakter")
			return
		}
		updates["password"] = hash
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		if !resetPassword {
			return nil
		}
		return revokeOtherSessions(tx, user.ID, sess.ID)
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			respondError(c, http.StatusBadRequest, "Email sudah digunakan oleh user lain")
			return
		}
		s.respondServerError(c, "updateUserHandler", "Gagal mengupdate user", err)
		return
	}
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		s.respondServerError(c, "updateUserHandler", "Gagal mengupdate user", err)
		return
	}
	respondOK(c, "User berhasil diupdate", user)
}

// deleteUserHandler removes the account and its sessions in one transaction.
func (s *server) deleteUserHandler(c *gin.Context, sess *Session) {
	id, ok := parseID(c, msgInvalidUserID)
	if !ok {
		return
	}
	var user models.User
	if !s.findByID(c, &user, id, "User tidak ditemukan", "deleteUserHandler") {
		return
	}
	if sess.User.ID == id {
		respondError(c, http.StatusBadRequest, "Anda tidak dapat menghapus akun Anda sendiri")
		return
	}
	err := s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "User tidak ditemukan")
			return
		}
		s.respondServerError(c, "deleteUserHandler", "Gagal menghapus user", err)
		return
	}
	respondOK(c, "User berhasil dihapus", nil)
}
