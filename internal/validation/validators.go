// Package validation wraps go-playground/validator with the struct
// tags declared on the request types in internal/domain, translating
// its field errors into the SchemaViolation shape the HTTP surface
// returns as a 422 (spec.md §4.9, §7).
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/smilearc/casegen/internal/errors"
)

var validate = validator.New()

// Struct validates req against its declared tags and returns a single
// SchemaViolation naming the first offending field, or nil.
func Struct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			return apperrors.SchemaViolation(fieldPath(fe), reason(fe))
		}
		return apperrors.SchemaViolation("request", err.Error())
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
