package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/validate"
)

const msgInvalidData = "Data tidak valid"

// parseID reads the :id path parameter; on failure it responds 400 with msg.
func parseID(c *gin.Context, msg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, msg)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body into dst. Validation failures answer 400 with
// msg and the failing fields.
func bindJSON(c *gin.Context, dst any, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondInvalid(c, msg, validate.Fields(err))
		return false
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// findByID loads one row into dst. It reports false after responding 404 or
// 500.
func (s *server) findByID(c *gin.Context, dst any, id uint, notFoundMsg, funcName string) bool {
	err := s.db.WithContext(c.Request.Context()).First(dst, id).Error
	switch {
	case err == nil:
		return true
	case isNotFound(err):
		respondError(c, http.StatusNotFound, notFoundMsg)
	default:
		s.respondServerError(c, funcName, "Terjadi kesalahan", err)
	}
	return false
}

// dateOrToday parses an optional YYYY-MM-DD value, defaulting to today in
// the configured timezone.
func (s *server) dateOrToday(raw string) (models.Date, error) {
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, err
	}
	if d.IsZero() {
		return models.NewDate(s.now().In(s.loc)), nil
	}
	return d, nil
}

// formDecimal parses a money value from a form field. Thousand separators
// written as "1.500.000" or "1,500,000" are not accepted.
func formDecimal(c *gin.Context, field string) (decimal.Decimal, bool, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(raw)
	return d, true, err
}

// formOptionalID parses an optional positive id from a form field.
func formOptionalID(c *gin.Context, field string) (*uint, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, errors.New("invalid id")
	}
	v := uint(id)
	return &v, nil
}
