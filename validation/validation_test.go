package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/voicenote/errors"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("bucket", "audio").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("bucket", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorMin(t *testing.T) {
	if New().Min("max_concurrency", 3, 1).HasErrors() {
		t.Error("expected no error")
	}
	if !New().Min("max_concurrency", 0, 1).HasErrors() {
		t.Error("expected error for value below min")
	}
}

func TestValidatorOneOf(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"allowed", "google", false},
		{"empty skipped", "", false},
		{"unknown", "azure", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().OneOf("provider", tc.value, []string{"google", "whisper"})
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tc.wantErr)
			}
		})
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New().Custom(false, "locale", "unsupported")
	if !v.HasErrors() || v.Errors()[0].Message != "unsupported" {
		t.Errorf("unexpected errors %v", v.Errors())
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Required("name", "voicenote").Validate(); err != nil {
		t.Errorf("expected nil for valid input, got %v", err)
	}

	err := New().Required("name", "").Required("bucket", "").Validate()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "name") || !strings.Contains(appErr.Message, "bucket") {
		t.Errorf("expected both fields in message, got %q", appErr.Message)
	}
	if _, ok := appErr.Details["fields"]; !ok {
		t.Error("expected fields detail")
	}
}

type stagingConfig struct {
	RetryCount int           `mapstructure:"upload_retry_count" validate:"gte=1"`
	RetryDelay time.Duration `mapstructure:"upload_retry_delay" validate:"gte=0"`
}

type appConfig struct {
	Provider string        `mapstructure:"provider" validate:"required,oneof=gcs s3 local"`
	Staging  stagingConfig `mapstructure:"staging"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := appConfig{Provider: "gcs", Staging: stagingConfig{RetryCount: 3, RetryDelay: 2 * time.Second}}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateUsesConfigKeys(t *testing.T) {
	err := Validate(appConfig{Provider: "ftp"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "provider: must be one of: gcs s3 local") {
		t.Errorf("expected provider message, got %q", msg)
	}
	if !strings.Contains(msg, "staging.upload_retry_count") {
		t.Errorf("expected dotted config key, got %q", msg)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("MaxConcurrency"); got != "max_concurrency" {
		t.Errorf("toSnakeCase() = %q", got)
	}
}
