package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/desertthunder/lectures/internal/shared"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide validator. Field names in errors come from form or json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name == "-" {
					break
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
	return validate
}

// ValidationError carries per-field messages and matches [shared.ErrInvalidInput] with errors.Is.
type ValidationError struct {
	Fields map[string]string
	err    error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, m := range e.Fields {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return fmt.Sprintf("%v: %s", shared.ErrInvalidInput, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error { return []error{shared.ErrInvalidInput, e.err} }

// FieldErrors extracts per-field messages for inline form errors.
// Returns nil when err holds no validation failures.
func FieldErrors(err error) map[string]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// ValidateStruct runs struct-tag validation on v.
func ValidateStruct(v any) error {
	return wrap(Validator().Struct(v), "")
}

// validateVar validates a single value, reporting failures under field.
func validateVar(value any, field, tag string) error {
	return wrap(Validator().Var(value, tag), field)
}

func wrap(err error, field string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		fields[name] = describe(name, fe)
	}
	return &ValidationError{Fields: fields, err: err}
}

func describe(field string, fe validator.FieldError) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "url", "http_url":
		return label + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}
