package middleware

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MinPolicyTextLen is the shortest policy text worth sending for analysis.
const MinPolicyTextLen = 50

var (
	ErrPolicyTooShort = errors.New("Policy text is required (minimum 50 characters)")
	ErrInvalidID      = errors.New("invalid id")
	ErrInvalidToken   = errors.New("invalid session token")
)

var (
	// Client session tokens look like "session_1718000000000_ab12cd".
	sessionTokenRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]{1,128}$`)
)

// ValidatePolicyText checks the trimmed text length in code points (runes), so an
// emoji counts once.
func ValidatePolicyText(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinPolicyTextLen {
		return ErrPolicyTooShort
	}
	return nil
}

// ValidateID accepts only canonical UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// ValidateSessionToken validates client-generated session tokens
func ValidateSessionToken(token string) error {
	if !sessionTokenRegex.MatchString(token) {
		return ErrInvalidToken
	}
	return nil
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}

// ValidateLimit parses a ?limit= value. Missing, malformed or non-positive values
// yield def; values above max are clamped.
func ValidateLimit(raw string, def, max int) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
