package imagery

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var sanitizedRe = regexp.MustCompile(`^[a-z0-9_]*$`)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Photo!", "my_photo_"},
		{"test", "test"},
		{"Front-Yard 02.PNG", "front_yard_02_png"},
		{"", ""},
		{"café", "caf_"},
		{"already_clean_42", "already_clean_42"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		once := Sanitize(name)

		if !sanitizedRe.MatchString(once) {
			t.Fatalf("Sanitize(%q) = %q has characters outside [a-z0-9_]", name, once)
		}
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent: %q -> %q -> %q", name, once, twice)
		}
	})
}
