package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"vidtube/pkg/apierror"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateBody turns tag failures into the field-level errors slice of
// the error envelope without leaking struct internals.
func validateBody(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apierror.BadRequest("invalid request body")
	}

	details := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			details = append(details, field+" is required")
		case "email":
			details = append(details, field+" must be a valid email address")
		case "min":
			details = append(details, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			details = append(details, field+" is invalid")
		}
	}

	return apierror.BadRequest("validation failed", details...)
}
