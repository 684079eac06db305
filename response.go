package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"websiteemas/pkg/logging"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// respondList always sends an array, never null.
func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: items})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

// respondInvalid is a 400 carrying per-field validation details.
func respondInvalid(c *gin.Context, message string, fields map[string]string) {
	body := envelope{Success: false, Message: message}
	if len(fields) > 0 {
		body.Error = fields
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// respondServerError logs err and sends a generic 500. The error text is
// only included in development.
func (s *server) respondServerError(c *gin.Context, funcName, message string, err error) {
	logging.LogError(s.log, "api", funcName, c.Request.Method+" "+c.FullPath(), c.Params, err)
	_ = c.Error(err)
	body := envelope{Success: false, Message: message}
	if s.cfg.IsDevelopment() {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}
