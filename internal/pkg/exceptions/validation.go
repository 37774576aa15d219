package exceptions

import (
	"medilab-service/internal/pkg/constvars"
	"strings"

	"github.com/go-playground/validator/v10"
)

var customValidationErrorMessages = map[string]string{
	"required": "is required",
	"oneof":    "must be one of: %s",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"email":    "must be a valid email address",
}

var tagsWithParams = map[string]bool{
	"oneof": true,
	"gt":    true,
	"gte":   true,
}

// FormatFirstValidationError converts the first validator.v10 failure into a
// human-readable client message.
func FormatFirstValidationError(err error) string {
	if err == nil {
		return constvars.ErrClientCannotProcessRequest
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return constvars.ErrClientCannotProcessRequest
	}

	firstErr := validationErrors[0]
	fieldName := strings.ToLower(firstErr.Field())
	tag := firstErr.Tag()
	customMessage, found := customValidationErrorMessages[tag]
	if !found {
		customMessage = "is invalid"
	}
	if tagsWithParams[tag] {
		if tag == "oneof" {
			customMessage = strings.Replace(customMessage, "%s", strings.Join(strings.Fields(firstErr.Param()), ", "), 1)
		} else {
			customMessage = strings.Replace(customMessage, "%s", firstErr.Param(), 1)
		}
	}
	return fieldName + " " + customMessage
}
