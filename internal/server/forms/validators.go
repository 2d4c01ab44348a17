// Package forms holds the typed form DTOs of the HTML pages and the field
// validators they are built from.
package forms

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validator checks one field value and returns a message, or "" when the
// value is acceptable.
type Validator func(value string) string

// Required fails on empty or whitespace-only values.
func Required() Validator {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "This field is required."
		}
		return ""
	}
}

func MinLength(min int) Validator {
	return func(value string) string {
		if utf8.RuneCountInString(value) < min {
			return fmt.Sprintf("Field must be at least %d characters long.", min)
		}
		return ""
	}
}

func Length(min, max int) Validator {
	return func(value string) string {
		n := utf8.RuneCountInString(value)
		if n < min || n > max {
			return fmt.Sprintf("Field must be between %d and %d characters long.", min, max)
		}
		return ""
	}
}

// Email accepts a bare address with a dotted domain.
func Email() Validator {
	return func(value string) string {
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return "Invalid email address."
		}
		_, domain, ok := strings.Cut(addr.Address, "@")
		if !ok || !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
			return "Invalid email address."
		}
		return ""
	}
}

func EqualTo(other, message string) Validator {
	return func(value string) string {
		if value != other {
			return message
		}
		return ""
	}
}

// Checked fails unless the checkbox was ticked.
func Checked(message string) Validator {
	return func(value string) string {
		if value == "" {
			return message
		}
		return ""
	}
}

// FieldError is one failed validation of a named field.
type FieldError struct {
	Field   string
	Message string
}

type Errors []FieldError

func (e Errors) Empty() bool { return len(e) == 0 }

// For returns the messages of a single field in validation order.
func (e Errors) For(field string) []string {
	var out []string
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// check runs the validators of one field and appends every failure. An
// empty value reports only its first failure.
func (e *Errors) check(field, value string, validators ...Validator) {
	for _, v := range validators {
		msg := v(value)
		if msg == "" {
			continue
		}
		*e = append(*e, FieldError{Field: field, Message: msg})
		if isEmpty(value) {
			return
		}
	}
}

func isEmpty(value string) bool { return strings.TrimSpace(value) == "" }
