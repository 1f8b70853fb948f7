// Package cpf validates and formats Brazilian individual taxpayer ids.
package cpf

import (
	"errors"
	"strings"
)

const Length = 11

var (
	ErrLength      = errors.New("cpf must have 11 digits")
	ErrRepeated    = errors.New("cpf cannot repeat a single digit")
	ErrCheckDigits = errors.New("cpf check digits do not match")
)

// Normalize strips every non-digit character.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Validate normalizes raw and checks length, repetition and both check digits.
// It returns the normalized digits when valid.
func Validate(raw string) (string, error) {
	digits := Normalize(raw)
	if len(digits) != Length {
		return "", ErrLength
	}
	if strings.Count(digits, digits[:1]) == Length {
		return "", ErrRepeated
	}

	if checkDigit(digits, 9) != digits[9]-'0' || checkDigit(digits, 10) != digits[10]-'0' {
		return "", ErrCheckDigits
	}

	return digits, nil
}

func IsValid(raw string) bool {
	_, err := Validate(raw)
	return err == nil
}

// checkDigit computes the verifier for position n (9 or 10) from the n
// digits before it, weighting them n+1 down to 2.
func checkDigit(digits string, n int) byte {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest >= 10 {
		rest = 0
	}
	return byte(rest)
}

// Format masks the digits of raw progressively as XXX.XXX.XXX-XX, ignoring
// anything past the eleventh digit.
func Format(raw string) string {
	digits := Normalize(raw)
	if len(digits) > Length {
		digits = digits[:Length]
	}

	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return digits[:3] + "." + digits[3:]
	case len(digits) <= 9:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:]
	default:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	}
}

// Mask hides all but the last two digits, for logs.
func Mask(raw string) string {
	digits := Normalize(raw)
	if len(digits) <= 2 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-2) + digits[len(digits)-2:]
}
