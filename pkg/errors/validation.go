package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxSourceLength bounds the size of a script accepted by ValidateSource.
const MaxSourceLength = 64 * 1024

// identifierRegex matches names usable as variables and function names.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidateIdentifier validates a function or variable name taken from a
// user-supplied function table.
func ValidateIdentifier(name string) error {
	if name == "" {
		return New(ErrCodeInvalidTable, "name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidTable, "name too long (max 128 characters)")
	}
	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidTable, "invalid name: %q", name)
	}
	return nil
}

// ValidateSource validates a script submitted for compilation.
//
// Validation rules:
//   - Source cannot be empty or blank
//   - Maximum length of MaxSourceLength bytes
//   - No control characters other than tab, newline and carriage return
func ValidateSource(src string) error {
	if strings.TrimSpace(src) == "" {
		return New(ErrCodeInvalidInput, "source cannot be empty")
	}
	if len(src) > MaxSourceLength {
		return New(ErrCodeInvalidInput, "source too long (max %d bytes)", MaxSourceLength)
	}
	for _, r := range src {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "source contains invalid control characters")
		}
	}
	return nil
}

// ValidateRedisURL validates a cache connection string.
func ValidateRedisURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "redis URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "redis URL must use redis or rediss scheme")
	}
	return nil
}
