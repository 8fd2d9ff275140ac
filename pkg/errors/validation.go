package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// memberNameRegex matches JSON:API member names as used for resource types,
// relationship names and query parameter families. Names start and end with
// a letter or digit and may contain '-' or '_' in between.
var memberNameRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_-]*[A-Za-z0-9])?$`)

// ValidateMemberName validates a resource type or relationship name before
// it is placed in a request path or query string.
func ValidateMemberName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "name too long (max 128 characters)")
	}
	if !memberNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid member name: %q", name)
	}
	return nil
}

// ValidateResourceID validates a resource id for use in a request path.
// Ids are opaque, so only emptiness, length and control characters are checked;
// callers escape the id when building the URL.
func ValidateResourceID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "resource id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "resource id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "resource id contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates an API path relative to the client's base URL.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// localeRegex matches BCP 47 style tags such as "en", "fr-CA" or "zh-Hant-TW".
var localeRegex = regexp.MustCompile(`^[A-Za-z]{2,3}(?:[-_][A-Za-z0-9]{2,8})*$`)

// ValidateLocale validates a locale tag used for translated fields.
func ValidateLocale(locale string) error {
	if !localeRegex.MatchString(locale) {
		return New(ErrCodeInvalidConfig, "invalid locale: %q", locale)
	}
	return nil
}
