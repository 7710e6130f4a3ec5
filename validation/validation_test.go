package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/imgkit/errors"
)

func TestValidator_SingleMissingField(t *testing.T) {
	err := New().Required("bucket", "  ").Validate()
	if !errors.IsCode(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected MISSING_FIELD, got %v", err)
	}
	if msg := errors.Message(err); msg != "missing required field: bucket" {
		t.Errorf("message = %q", msg)
	}
}

func TestValidator_MultipleErrors(t *testing.T) {
	v := New().
		Required("token", "").
		NonZero("strategy_id", 0).
		NotEmpty("file", nil).
		HTTPURL("base_url", "ftp://x")

	err := v.Validate()
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	app, _ := errors.AsAppError(err)
	if fields, _ := app.Details["fields"].([]FieldError); len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", app.Details["fields"])
	}
	for _, f := range []string{"token", "strategy_id", "file", "base_url"} {
		if !strings.Contains(err.Error(), f) {
			t.Errorf("error %q does not mention %s", err.Error(), f)
		}
	}
}

func TestValidator_Valid(t *testing.T) {
	v := New().
		Required("bucket", "b").
		NonZero("key", 5).
		NotEmpty("file", []byte{1}).
		HTTPURL("endpoint", "https://s3.example.com").
		HTTPURL("custom_domain", "")
	if err := v.Validate(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

type presignInput struct {
	Key     string `json:"key" validate:"required"`
	Expires int    `json:"expires" validate:"gte=0"`
}

func TestValidate_StructTags(t *testing.T) {
	if err := Validate(presignInput{Key: "a.png", Expires: 600}); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	err := Validate(presignInput{})
	if !errors.IsCode(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected MISSING_FIELD for empty key, got %v", err)
	}

	err = Validate(presignInput{Key: "a", Expires: -1})
	if err == nil || !strings.Contains(err.Error(), "expires") {
		t.Errorf("expected expires error, got %v", err)
	}
}
