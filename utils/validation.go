package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BindErrors converts a gin binding failure into a list of field errors.
// Non-validator errors (malformed JSON, wrong types) collapse into a single
// body-level entry.
func BindErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: "request body is invalid"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		out = append(out, FieldError{Field: name, Message: fieldMessage(name, fe)})
	}
	return out
}

func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "email":
		return name + " must be a valid email address"
	case "alphanum":
		return name + " may only contain letters and digits"
	case "url":
		return name + " must be a valid url"
	default:
		return name + " is invalid"
	}
}
