package common

import (
	"errors"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// FieldError is a single structured validation failure.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// FieldErrors converts validator errors into the canonical details payload.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}
