// Package validation holds the field checks applied before credentials or
// reset requests leave the process. They mirror the server's rules so users
// get an answer without a round trip; the server still has the final say.
package validation

import (
	"regexp"
	"unicode"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// Error is a failed check. Error() is the Go message; UserMessage is the
// sentence shown next to the form field.
type Error struct {
	msg  string
	text string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) UserMessage() string { return e.text }

var (
	ErrRequired = &Error{
		msg:  "value is required",
		text: "This field is required.",
	}
	ErrInvalidEmail = &Error{
		msg:  "invalid email address",
		text: "Invalid email address.",
	}
	ErrPasswordLength = &Error{
		msg:  "password must be 8 to 128 characters",
		text: "Password must be between 8 and 128 characters.",
	}
	ErrPasswordContent = &Error{
		msg:  "password needs a letter and a digit",
		text: "Password must contain at least one letter and one number.",
	}
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator checks a single value and returns nil when it passes.
type Validator func(value string) error

func Required(value string) error {
	if value == "" {
		return ErrRequired
	}
	return nil
}

func Email(value string) error {
	if !emailPattern.MatchString(value) {
		return ErrInvalidEmail
	}
	return nil
}

// Password enforces 8-128 characters with at least one letter and one digit.
func Password(value string) error {
	n := len([]rune(value))
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrPasswordLength
	}

	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordContent
	}
	return nil
}

// Field runs validators in order and returns the first failure.
func Field(value string, validators ...Validator) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}
