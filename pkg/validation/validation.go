// Package validation wraps go-playground/validator with the ledger's tag
// set and renders the first violation as a coded domain error.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "doceo/pkg/domain-errors"
	s "doceo/pkg/string"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// notblank rejects whitespace-only strings, which `required` accepts.
	_ = v.RegisterValidation("notblank", notBlank)
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Messages per rule tag. Tags under paramRules interpolate the tag
// parameter after the field name.
var (
	plainRules = map[string]string{
		"required":    "%s is required",
		"notblank":    "%s must not be blank",
		"hexadecimal": "%s must be hexadecimal",
	}
	paramRules = map[string]string{
		"len": "%s must be exactly %s characters",
		"min": "%s must be at least %s",
		"max": "%s must be at most %s",
	}
)

// Validate checks a request struct and returns a CodeValidation domain
// error describing the first violated rule.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ErrorMessage renders a validator error for API clients: snake_case
// field name plus a short rule description.
func ErrorMessage(err error) string {
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) || len(violations) == 0 {
		return "invalid request body"
	}

	fe := violations[0]
	field := fieldName(fe)
	if field == "" {
		return "invalid request body"
	}

	if msg, ok := plainRules[fe.ActualTag()]; ok {
		return fmt.Sprintf(msg, field)
	}
	if msg, ok := paramRules[fe.ActualTag()]; ok {
		return fmt.Sprintf(msg, field, fe.Param())
	}
	return field + " is invalid"
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		name = fe.StructField()
	}
	return s.ToSnakeCase(name)
}
