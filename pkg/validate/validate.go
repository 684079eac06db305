package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"websiteemas/models"
)

// PhoneRegion is the default region for numbers written without a country
// code (e.g. 0812...).
const PhoneRegion = "ID"

var (
	ErrInvalidPhone = errors.New("nomor HP tidak valid")
	emailRE         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailRE.MatchString(strings.TrimSpace(s))
}

// NormalizePhone parses an Indonesian (or explicitly international) number
// and returns it in E.164 form, e.g. +6281234567890.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(raw, PhoneRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// Register adds the custom binding tags used by the request structs:
// idphone, email_loose, kondisi, rabstatus and role. Field errors are
// reported under their json names.
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"idphone": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := NormalizePhone(s)
			return err == nil
		},
		"email_loose": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || Email(s)
		},
		"kondisi": func(fl validator.FieldLevel) bool {
			return models.ValidKondisi(fl.Field().String())
		},
		"rabstatus": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || models.ValidRABStatus(s)
		},
		"role": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || models.ValidRole(s)
		},
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// Fields flattens validator errors into json-field -> rule, for the error
// payload of a 400 response. Other errors (malformed JSON) yield nil.
func Fields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}
