package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"websiteemas/models"
)

const (
	sessionKey    = "session"
	sessionIssuer = "websiteemas"
)

var ErrNoSession = errors.New("no valid session")

// Session is the authenticated caller of one request. Middleware stores it in
// the gin context and handlers receive it as an argument.
type Session struct {
	ID        string
	User      models.User
	ExpiresAt time.Time
}

// createSession stores a session row for user and returns the signed token
// referencing it. The token is also set as the session cookie.
func (s *server) createSession(c *gin.Context, user models.User) (string, error) {
	now := s.now().UTC()
	row := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.Session.MaxAge),
		IP:        c.ClientIP(),
		UserAgent: truncate(c.Request.UserAgent(), 255),
	}
	ctx := c.Request.Context()
	// drop this user's dead rows while we are here
	s.db.WithContext(ctx).
		Where("user_id = ? AND (expires_at < ? OR revoked = ?)", user.ID, now, true).
		Delete(&models.Session{})
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        row.ID,
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(row.ExpiresAt),
	})
	signed, err := token.SignedString([]byte(s.cfg.Session.Secret))
	if err != nil {
		return "", err
	}
	s.setSessionCookie(c, signed, int(s.cfg.Session.MaxAge.Seconds()))
	return signed, nil
}

func (s *server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.Session.Cookie, value, maxAge, "/", "", s.cfg.Session.Secure, true)
}

// sessionToken reads the cookie first, then an Authorization bearer header.
func (s *server) sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(s.cfg.Session.Cookie); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// loadSession verifies the token and the row behind it.
func (s *server) loadSession(c *gin.Context) (*Session, error) {
	raw := s.sessionToken(c)
	if raw == "" {
		return nil, ErrNoSession
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return []byte(s.cfg.Session.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.ID == "" {
		return nil, ErrNoSession
	}
	var row models.Session
	err = s.db.WithContext(c.Request.Context()).Preload("User").Where("id = ?", claims.ID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if !row.Active(s.now()) || row.User.ID == 0 {
		return nil, ErrNoSession
	}
	return &Session{ID: row.ID, User: row.User, ExpiresAt: row.ExpiresAt}, nil
}

// revokeSession marks the row revoked and clears the cookie.
func (s *server) revokeSession(c *gin.Context, id string) error {
	s.setSessionCookie(c, "", -1)
	if id == "" {
		return nil
	}
	return s.db.WithContext(c.Request.Context()).Model(&models.Session{}).
		Where("id = ?", id).Update("revoked", true).Error
}

func sessionFrom(c *gin.Context) *Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

// withSession adapts a handler that needs the caller. It must run behind
// isAuthenticated.
func withSession(h func(*gin.Context, *Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil {
			unauthorized(c)
			return
		}
		h(c, sess)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
