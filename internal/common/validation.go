package common

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var phoneCleaner = regexp.MustCompile(`[\s().\-]`)

var phoneDigits = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// NormalizePhone strips separators and returns the number as +digits.
// A leading 00 international prefix is treated like +.
func NormalizePhone(phone, fieldName string) (string, error) {
	cleaned := phoneCleaner.ReplaceAllString(strings.TrimSpace(phone), "")
	if cleaned == "" {
		return "", fmt.Errorf("%s is required", fieldName)
	}
	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}
	if !phoneDigits.MatchString(cleaned) {
		return "", fmt.Errorf("%s must contain 7 to 15 digits", fieldName)
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return cleaned, nil
}

// ValidateEmail checks a single bare address and lower-cases it.
func ValidateEmail(email, fieldName string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%s is required", fieldName)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", fmt.Errorf("%s is not a valid email address", fieldName)
	}
	return strings.ToLower(email), nil
}

// ValidateOptionalEmail is ValidateEmail for nullable fields.
func ValidateOptionalEmail(email *string, fieldName string) (*string, error) {
	if email == nil || strings.TrimSpace(*email) == "" {
		return nil, nil
	}
	normalized, err := ValidateEmail(*email, fieldName)
	if err != nil {
		return nil, err
	}
	return &normalized, nil
}

// NormalizeTags trims, lower-cases and de-duplicates tags, dropping empties.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
