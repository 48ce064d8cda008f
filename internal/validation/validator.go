// Package validation checks decoded request bodies before they reach the services.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"showcase/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	slugRegex      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	kennitalaRegex = regexp.MustCompile(`^[0-9]{10}$`)
)

var reservedSlugs = map[string]struct{}{
	"admin":            {},
	"api":              {},
	"active-or-recent": {},
	"with-projects":    {},
	"my":               {},
	"swagger":          {},
	"metrics":          {},
	"health":           {},
}

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return ValidateSlug(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
			return isWebURL(fl.Field().String())
		})
		_ = v.RegisterValidation("kennitala", func(fl validator.FieldLevel) bool {
			return kennitalaRegex.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Struct validates a request DTO. Failures come back as a VALIDATION_ERROR
// AppError naming the first offending fields.
func Struct(req any) error {
	err := instance().Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError("Invalid request body")
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return models.NewValidationError(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return field + " must not contain duplicates"
	case "weburl", "url":
		return field + " must be a valid URL"
	case "hexcolor":
		return field + " must be a hex color like #1a2b3c"
	case "kennitala":
		return field + " must be 10 digits"
	case "slug":
		return field + " must be a lowercase slug that is not reserved"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// ValidateSlug accepts lowercase words joined by single hyphens, excluding
// names that collide with routes.
func ValidateSlug(s string) error {
	if len(s) < 3 || len(s) > 255 {
		return errors.New("slug must be 3-255 characters")
	}
	if !slugRegex.MatchString(s) {
		return errors.New("slug may only contain lowercase letters, numbers and single hyphens")
	}
	if _, reserved := reservedSlugs[s]; reserved {
		return errors.New("slug is reserved")
	}
	return nil
}

// isWebURL accepts an http(s) URL or a bare host, since titles are derived
// from scheme-less addresses too.
func isWebURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host != "" && !strings.ContainsAny(host, " _")
}
