package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"websiteemas/models"
	"websiteemas/pkg/logging"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (s *server) loginHandler(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBind(&req)
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Email dan password harus diisi")
		return
	}
	user, err := Authenticate(c.Request.Context(), s.db, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.log.WithField("email", normalizeEmail(req.Email)).Info("login failed")
			respondError(c, http.StatusUnauthorized, "Email atau password salah")
			return
		}
		s.respondServerError(c, "loginHandler", "Terjadi kesalahan saat login", err)
		return
	}
	token, err := s.createSession(c, user)
	if err != nil {
		s.respondServerError(c, "loginHandler", "Terjadi kesalahan saat login", err)
		return
	}
	c.Set(logging.UserIDKey, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Login berhasil",
		"data":     user,
		"token":    token,
		"redirect": "/dashboard",
	})
}

func (s *server) logoutHandler(c *gin.Context) {
	var id string
	if sess, err := s.loadSession(c); err == nil {
		id = sess.ID
	}
	if err := s.revokeSession(c, id); err != nil {
		s.respondServerError(c, "logoutHandler", "Gagal logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout berhasil", "redirect": "/login"})
}

func (s *server) meHandler(c *gin.Context) {
	sess, err := s.loadSession(c)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			s.respondServerError(c, "meHandler", "Terjadi kesalahan", err)
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success":         false,
			"message":         "Tidak ada user yang login",
			"isAuthenticated": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"isAuthenticated": true,
		"data":            sess.User,
		"permissions": gin.H{
			"can_create_records": !sess.User.IsAdmin(),
			"can_manage_users":   sess.User.IsAdmin(),
		},
	})
}

type registerRequest struct {
	Nama       string `json:"nama" form:"nama"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	Keterangan string `json:"keterangan" form:"keterangan"`
}

func (s *server) registerHandler(c *gin.Context) {
	var req registerRequest
	_ = c.ShouldBind(&req)
	if strings.TrimSpace(req.Nama) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Nama, email, dan password harus diisi")
		return
	}
	user, err := RegisterUser(c.Request.Context(), s.db, newUser{
		Nama:       req.Nama,
		Email:      req.Email,
		Password:   req.Password,
		Role:       models.RoleUser,
		Keterangan: req.Keterangan,
	})
	if err != nil {
		if msg, ok := userInputError(err, "Password minimal 6 karakter", "Email sudah terdaftar"); ok {
			respondError(c, http.StatusBadRequest, msg)
			return
		}
		s.respondServerError(c, "registerHandler", "Terjadi kesalahan saat registrasi", err)
		return
	}
	respondCreated(c, "Registrasi berhasil", user)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password"`
	NewPassword string `json:"new_password" form:"new_password"`
}

func (s *server) changePasswordHandler(c *gin.Context, sess *Session) {
	var req changePasswordRequest
	_ = c.ShouldBind(&req)
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(c, http.StatusBadRequest, "Password lama dan password baru harus diisi")
		return
	}
	err := ChangePassword(c.Request.Context(), s.db, sess.User.ID, sess.ID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		respondOK(c, "Password berhasil diubah", nil)
	case errors.Is(err, ErrPasswordTooShort):
		respondError(c, http.StatusBadRequest, "Password baru minimal 6 karakter")
	case errors.Is(err, ErrWrongPassword):
		respondError(c, http.StatusUnauthorized, "Password lama salah")
	case errors.Is(err, ErrUserNotFound):
		respondError(c, http.StatusNotFound, "User tidak ditemukan")
	default:
		s.respondServerError(c, "changePasswordHandler", "Terjadi kesalahan saat mengubah password", err)
	}
}

// userInputError maps the account validation errors to a user message.
func userInputError(err error, shortPassword, emailTaken string) (string, bool) {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "Format email tidak valid", true
	case errors.Is(err, ErrPasswordTooShort):
		return shortPassword, true
	case errors.Is(err, ErrEmailTaken):
		return emailTaken, true
	}
	return "", false
}
