package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"websiteemas/pkg/logging"
)

const (
	msgLoginRequired = "Anda harus login terlebih dahulu"
	msgForbidden     = "Anda tidak memiliki akses ke resource ini"
)

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func unauthorized(c *gin.Context) {
	if isAPI(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success":         false,
			"message":         msgLoginRequired,
			"isAuthenticated": false,
		})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

// isAuthenticated loads the session and stores it in the context.
func (s *server) isAuthenticated(c *gin.Context) {
	sess, err := s.loadSession(c)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logging.LogError(s.log, "session", "isAuthenticated", c.Request.URL.Path, nil, err)
		}
		unauthorized(c)
		return
	}
	c.Set(sessionKey, sess)
	c.Set(logging.UserIDKey, sess.User.ID)
	c.Next()
}

// isAdmin must run after isAuthenticated.
func (s *server) isAdmin(c *gin.Context) {
	sess := sessionFrom(c)
	if sess == nil {
		unauthorized(c)
		return
	}
	if sess.User.IsAdmin() {
		c.Next()
		return
	}
	if isAPI(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success":         false,
			"message":         msgForbidden,
			"isAuthenticated": true,
		})
		return
	}
	c.Redirect(http.StatusFound, "/dashboard?error=forbidden")
	c.Abort()
}

// isGuest keeps logged-in visitors off the login and register pages.
func (s *server) isGuest(c *gin.Context) {
	if _, err := s.loadSession(c); err == nil {
		c.Redirect(http.StatusFound, "/dashboard")
		c.Abort()
		return
	}
	c.Next()
}
