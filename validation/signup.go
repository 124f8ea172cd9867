// Package validation provides input validation for signup and profile forms.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks basic email format and, when allowedDomains is
// non-empty, that the address ends in one of the accepted institutional
// domains. Rejections happen before any network or database call.
func ValidateEmail(email string, allowedDomains []string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if len(allowedDomains) == 0 {
		return nil
	}

	lower := strings.ToLower(email)
	for _, domain := range allowedDomains {
		if strings.HasSuffix(lower, "@"+domain) || strings.HasSuffix(lower, "."+domain) {
			return nil
		}
	}
	return fmt.Errorf("please use a valid %s email", strings.Join(atPrefixed(allowedDomains), " or "))
}

func atPrefixed(domains []string) []string {
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = "@" + d
	}
	return out
}

// ValidatePassword checks the signup password rules.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
	}
	return nil
}

// ValidatePasswordConfirmation checks that the two password fields match.
func ValidatePasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}
	return nil
}
