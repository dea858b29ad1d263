package tenant

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidSlug is returned for slugs outside the accepted shape.
var ErrInvalidSlug = errors.New("slug must be 2-80 lowercase letters, digits, or hyphens")

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// NormalizeSlug lowercases and trims a raw slug. Normalization never fixes an
// invalid slug; it only removes case and whitespace noise before validation.
func NormalizeSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateSlug checks a normalized slug against the URL-safe shape tenants
// are addressed by.
func ValidateSlug(slug string) error {
	if len(slug) < 2 || len(slug) > 80 {
		return ErrInvalidSlug
	}
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}
