package config

import (
	"strings"
	"testing"
)

func TestExpandEnvWithDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_PASS", "s3cret")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "host: ${DB_HOST}", "host: db.example.com"},
		{"shorthand", "host: $DB_HOST", "host: db.example.com"},
		{"multiple", "${DB_HOST}:${DB_PASS}", "db.example.com:s3cret"},
		{"unset braced", "host: ${NO_SUCH_VAR_XYZ}", "host: "},
		{"unset shorthand", "host: $NO_SUCH_VAR_XYZ", "host: "},
		{"default used when unset", "host: ${NO_SUCH_VAR_XYZ:-fallback}", "host: fallback"},
		{"default used when empty", "host: ${EMPTY_VAR:-fallback}", "host: fallback"},
		{"default ignored when set", "host: ${DB_HOST:-fallback}", "host: db.example.com"},
		{"empty default", "host: ${NO_SUCH_VAR_XYZ:-}", "host: "},
		{"required satisfied", "pass: ${DB_PASS:?must be set}", "pass: s3cret"},
		{"no reference", "plain text", "plain text"},
		{"dollar number", "price: $100", "price: $100"},
		{"lone dollar", "a$", "a$"},
		{"empty braces", "x: ${}", "x: ${}"},
		{"unclosed brace", "x: ${OOPS", "x: ${OOPS"},
		{"invalid name", "x: ${9BAD}", "x: ${9BAD}"},
		{"invalid operator", "x: ${VAR:+alt}", "x: ${VAR:+alt}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvWithDefaults(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExpandEnvRequiredUnset(t *testing.T) {
	_, err := expandEnvWithDefaults("pass: ${NO_SUCH_VAR_XYZ:?database password}")
	if err == nil {
		t.Fatal("expected error for unset required variable")
	}
	if !strings.Contains(err.Error(), "NO_SUCH_VAR_XYZ") || !strings.Contains(err.Error(), "database password") {
		t.Errorf("error should name the variable and the message: %v", err)
	}

	_, err = expandEnvWithDefaults("pass: ${NO_SUCH_VAR_XYZ:?}")
	if err == nil {
		t.Fatal("expected error for unset required variable without message")
	}
}
