// Package validate provides format validators for company profile fields.
// Validators report format acceptability only; business rules live in service.
package validate

import (
	"net/url"
	"regexp"
	"unicode/utf8"
)

const (
	maxNameLength    = 100
	maxWebsiteLength = 2048
)

var (
	// namePattern: must start with a letter or digit; then letters, digits,
	// spaces and common punctuation found in legal company names.
	namePattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .,'&()!-]*$`)

	// phonePattern: optional leading +, then 7-20 digits with separators.
	// Must end on a digit so bare separators cannot pad the length.
	phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9 ().-]{5,18}[0-9]$`)
)

// CompanyName reports whether name is an acceptable company name.
func CompanyName(name string) bool {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return false
	}
	return namePattern.MatchString(name)
}

// WebsiteURL reports whether raw is an acceptable http(s) URL.
func WebsiteURL(raw string) bool {
	if raw == "" || len(raw) > maxWebsiteLength {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	// Only allow http and https schemes
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	// Must have a host
	return parsed.Host != ""
}

// Phone reports whether raw is an acceptable phone number.
func Phone(raw string) bool {
	return phonePattern.MatchString(raw)
}
