package auth

import (
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the minimum number of characters in a password
const MinPasswordLength = 12

// Password policy violations
const (
	ErrPasswordTooShort  = "Password must be at least 12 characters long"
	ErrPasswordNoUpper   = "Password must contain at least one uppercase letter"
	ErrPasswordNoLower   = "Password must contain at least one lowercase letter"
	ErrPasswordNoDigit   = "Password must contain at least one number"
	ErrPasswordNoSpecial = "Password must contain at least one special character"
)

// PasswordValidation is the outcome of ValidatePassword
type PasswordValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidatePassword checks password against the password policy and reports
// every violated rule.
func ValidatePassword(password string) PasswordValidation {
	errs := []string{}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs = append(errs, ErrPasswordTooShort)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	if !upper {
		errs = append(errs, ErrPasswordNoUpper)
	}
	if !lower {
		errs = append(errs, ErrPasswordNoLower)
	}
	if !digit {
		errs = append(errs, ErrPasswordNoDigit)
	}
	if !special {
		errs = append(errs, ErrPasswordNoSpecial)
	}

	return PasswordValidation{Valid: len(errs) == 0, Errors: errs}
}
