package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/imgkit/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Validate returns an AppError if there are validation errors, nil otherwise.
// A single missing field yields a MISSING_FIELD error.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	if len(v.errors) == 1 && v.errors[0].Message == msgRequired {
		return errors.MissingField(v.errors[0].Field)
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s %s", e.Field, e.Message)
	}

	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{"fields": v.errors}
	return appErr
}

const msgRequired = "is required"

// Required checks that a string is non-blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, msgRequired)
	}
	return v
}

// NonZero checks that a numeric id is set.
func (v *Validator) NonZero(field string, value int64) *Validator {
	if value == 0 {
		v.AddError(field, "must be non-zero")
	}
	return v
}

// NotEmpty checks that a payload has at least one byte.
func (v *Validator) NotEmpty(field string, data []byte) *Validator {
	if len(data) == 0 {
		v.AddError(field, "must not be empty")
	}
	return v
}

// HTTPURL checks that a non-empty value is an absolute http(s) URL.
func (v *Validator) HTTPURL(field, value string) *Validator {
	if value == "" {
		return v
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.AddError(field, "must be an http(s) URL")
	}
	return v
}

