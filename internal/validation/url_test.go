package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		expectErr bool
	}{
		{name: "https", url: "https://example.com", expectErr: false},
		{name: "http with port", url: "http://127.0.0.1:3000", expectErr: false},
		{name: "path prefix", url: "https://example.com/docs/", expectErr: false},

		{name: "no scheme", url: "example.com", expectErr: true},
		{name: "ftp scheme", url: "ftp://example.com", expectErr: true},
		{name: "javascript scheme", url: "javascript:alert(1)", expectErr: true},
		{name: "no host", url: "https://", expectErr: true},
		{name: "query", url: "https://example.com/?a=b", expectErr: true},
		{name: "fragment", url: "https://example.com/#top", expectErr: true},
		{name: "quote", url: "https://example.com/\"x", expectErr: true},
		{name: "space", url: "https://example.com/a b", expectErr: true},
		{name: "angle bracket", url: "https://example.com/<script>", expectErr: true},
		{name: "malformed", url: "http://[::1", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.url)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func FuzzValidateBaseURL(f *testing.F) {
	seeds := []string{
		"https://example.com",
		"http://localhost:8080/docs",
		"javascript:alert(1)",
		"https://example.com/?q=1",
		"https://example.com/\"><script>",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		if ValidateBaseURL(raw) != nil {
			return
		}
		lower := strings.ToLower(raw)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			t.Errorf("accepted URL without http(s) scheme: %q", raw)
		}
		if strings.ContainsAny(raw, "\"'<>?#") {
			t.Errorf("accepted URL with unsafe character: %q", raw)
		}
	})
}
