// Package domain holds what the interactor packages share: request
// validation and the error it reports.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/onmir/booktracker/internal/entities"
)

// ErrInvalidRequest is matched by every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// ValidationError lists the request fields that failed their constraints.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s failed %s", f.Field, f.Rule)
	}
	return fmt.Sprintf("invalid request: %s", strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("book_status", func(fl validator.FieldLevel) bool {
			return entities.BookStatus(fl.Field().String()).IsValid()
		})
		_ = validate.RegisterValidation("book_source", func(fl validator.FieldLevel) bool {
			return entities.BookSource(fl.Field().String()).IsValid()
		})
	})
	return validate
}

// Validate checks req against its validate struct tags.
func Validate(req any) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// NullableText maps blank text to nil so it is stored as NULL.
func NullableText(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
