package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

const maxQueryLen = 512

var exploitIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidateQuery sanitizes a free-text search query. Empty is allowed and
// matches the whole catalog.
func ValidateQuery(q string) (string, error) {
	q = SanitizeString(q)
	if utf8.RuneCountInString(q) > maxQueryLen {
		return "", fmt.Errorf("query too long (max %d characters)", maxQueryLen)
	}
	return q, nil
}

// ValidateExploitID validates catalog identifiers
func ValidateExploitID(id string) error {
	if id == "" {
		return fmt.Errorf("exploit ID cannot be empty")
	}
	if !exploitIDPattern.MatchString(id) {
		return fmt.Errorf("invalid exploit ID format (alphanumeric, dot, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateFormat checks the export format, defaulting to pdf.
func ValidateFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "":
		return "pdf", nil
	case "pdf", "docx":
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (allowed: pdf, docx)", format)
	}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit, maxLimit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// ValidatePage validates page numbers (1-based)
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
