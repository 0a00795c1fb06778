// Package validate normalizes and checks request input, collecting one
// message per field.
package validate

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

const (
	MinQuantity = 1
	MaxQuantity = 10000
)

var (
	phonePattern   = regexp.MustCompile(`^(\+91)?[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
	gstinPattern   = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][A-Z\d]Z[A-Z\d]$`)
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	phoneStrip     = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// Error is returned when one or more fields fail validation.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	return "validation failed"
}

// Field builds an Error for a single field.
func Field(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

// Validator accumulates field errors. The zero value is ready to use.
type Validator struct {
	fields map[string]string
}

// Check records msg for field when ok is false. Only the first failure per
// field is kept.
func (v *Validator) Check(ok bool, field, msg string) {
	if ok {
		return
	}
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

func (v *Validator) Valid() bool { return len(v.fields) == 0 }

// Err returns nil when every check passed.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &Error{Fields: v.fields}
}

func (v *Validator) Required(field, value string) string {
	value = strings.TrimSpace(value)
	v.Check(value != "", field, field+" is required")
	return value
}

func (v *Validator) Email(field, value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	addr, err := mail.ParseAddress(value)
	v.Check(err == nil && addr.Address == value, field, "Valid email is required")
	return value
}

// Phone accepts Indian mobile numbers with an optional +91 prefix.
func (v *Validator) Phone(field, value string) string {
	cleaned := phoneStrip.Replace(strings.TrimSpace(value))
	if cleaned == "" {
		v.Check(false, field, "Phone number is required")
		return cleaned
	}
	v.Check(phonePattern.MatchString(cleaned), field, "Valid Indian mobile number is required")
	return cleaned
}

func (v *Validator) Pincode(field, value string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if cleaned == "" {
		v.Check(false, field, "Pincode is required")
		return cleaned
	}
	v.Check(pincodePattern.MatchString(cleaned), field, "Pincode must be 6 digits")
	return cleaned
}

// GSTIN is optional; an empty value passes.
func (v *Validator) GSTIN(field, value string) string {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	if cleaned == "" {
		return ""
	}
	v.Check(gstinPattern.MatchString(cleaned), field, "Invalid GST number format")
	return cleaned
}

func (v *Validator) Name(field, value string) string {
	value = strings.TrimSpace(value)
	if len(value) < 2 {
		v.Check(false, field, "Name must be at least 2 characters long")
		return value
	}
	v.Check(namePattern.MatchString(value), field, "Name can only contain letters and spaces")
	return value
}

func (v *Validator) Password(field, value string) {
	if len(value) < 8 {
		v.Check(false, field, "Password must be at least 8 characters long")
		return
	}
	var upper, lower, digit bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	v.Check(upper && lower && digit, field,
		"Password must contain at least one uppercase letter, one lowercase letter, and one number")
}

func (v *Validator) Quantity(field string, q int) int {
	v.Check(q >= MinQuantity && q <= MaxQuantity, field, "Quantity must be between 1 and 10000")
	return q
}

// MaxLen trims value and truncates it to n runes.
func MaxLen(value string, n int) string {
	value = strings.TrimSpace(value)
	r := []rune(value)
	if len(r) > n {
		return string(r[:n])
	}
	return value
}
