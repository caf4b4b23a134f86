package models

import (
	"regexp"
	"unicode"
)

var (
	emailRegex = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidPhone accepts an E.164-like number.
func ValidPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// ValidPassword requires at least 6 characters with one lowercase letter,
// one uppercase letter and one digit.
func ValidPassword(s string) bool {
	if len(s) < 6 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
