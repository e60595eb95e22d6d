package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidatePhone accepts local or international numbers, ignoring spaces and dashes
func ValidatePhone(phone string) error {
	normalized := strings.NewReplacer(" ", "", "-", "").Replace(phone)
	if !phoneRegex.MatchString(normalized) {
		return fmt.Errorf("invalid phone number: %s", phone)
	}
	return nil
}

// ValidateAmount rejects negative and non-finite monetary amounts
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("amount must be a finite number")
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative: %.2f", amount)
	}
	return nil
}

// SanitizeString strips control characters other than tab and newline and trims the result
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
