// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)+$`)
	digitsOnly    = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateUsername allows letters, digits and @/./+/-/_ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("This field is required.")
	}
	if utf8.RuneCountInString(username) > 150 {
		return errors.New("Ensure this value has at most 150 characters.")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return nil
}

// ValidateEmail checks the address shape and the 254 character limit.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("This field is required.")
	}
	if len(email) > 254 {
		return errors.New("Ensure this value has at most 254 characters.")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("Enter a valid email address.")
	}
	return nil
}

// ValidatePassword rejects short and purely numeric passwords.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("This field is required.")
	}
	if utf8.RuneCountInString(password) < 8 {
		return errors.New("This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > 128 {
		return errors.New("Ensure this value has at most 128 characters.")
	}
	if digitsOnly.MatchString(password) {
		return errors.New("This password is entirely numeric.")
	}
	return nil
}

// Required fails for blank (whitespace only) values.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("This field is required.")
	}
	return nil
}

// MaxLength fails when value is longer than max characters.
func MaxLength(value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return fmt.Errorf("Ensure this value has at most %d characters (it has %d).", max, n)
	}
	return nil
}

// Errors collects field errors in form order.
type Errors map[string]string

// Check records err against field unless the field already failed.
func (e Errors) Check(field string, err error) {
	if err == nil {
		return
	}
	if _, ok := e[field]; !ok {
		e[field] = err.Error()
	}
}

// Empty reports whether no field failed.
func (e Errors) Empty() bool {
	return len(e) == 0
}
