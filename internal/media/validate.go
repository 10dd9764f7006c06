package media

import (
	"fmt"
	"net/url"
	"strings"
)

// IsURL reports whether a media value is URL-shaped, as opposed to an opaque
// provider file token.
func IsURL(value string) bool {
	return strings.Contains(value, "://")
}

// ValidateURL checks a URL-shaped media value. Opaque file tokens are
// accepted as-is; the provider rejects unknown tokens on its own.
func ValidateURL(value string) error {
	if value == "" {
		return fmt.Errorf("media value is empty")
	}
	if !IsURL(value) {
		return nil
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid media URL %q: %w", value, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("media URL %q must use http or https", value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("media URL %q has no host", value)
	}
	return nil
}
