// Package validation checks user-supplied values that end up inside
// generated documents.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateBaseURL checks a site base URL. Page paths are appended to it in
// the sitemap, so it must be an absolute http(s) URL without a query or
// fragment.
func ValidateBaseURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme)
	}

	if strings.ContainsAny(rawURL, " \"'<>`\\\n\r") {
		return fmt.Errorf("URL contains characters that are not allowed in a document")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" || strings.ContainsAny(rawURL, "?#") {
		return fmt.Errorf("base URL must not carry a query or fragment")
	}

	return nil
}
