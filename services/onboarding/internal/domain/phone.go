package domain

import (
	"strings"
	"unicode"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
)

// Phone digit bounds. MinPhoneDigits applies to the number as typed, before
// the country code is added; MaxE164Digits is the E.164 ceiling.
const (
	MinPhoneDigits = 7
	MaxE164Digits  = 15
)

// ErrPhoneTooShort is the message shown when fewer than MinPhoneDigits digits were typed.
const ErrPhoneTooShort = "enter a valid phone number"

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneDigits counts the digits in raw.
func PhoneDigits(raw string) int {
	return len(digitsOf(raw))
}

// NormalizePhone strips everything but digits from raw and prefixes the
// country code, producing an E.164 string. Input that already starts with
// "+" is treated as international and keeps its own country code.
func NormalizePhone(raw, countryCode string) (string, error) {
	raw = strings.TrimSpace(raw)
	digits := digitsOf(raw)
	if len(digits) < MinPhoneDigits {
		return "", apperrors.Format(ErrPhoneTooShort)
	}

	full := digits
	if !strings.HasPrefix(raw, "+") {
		cc := digitsOf(countryCode)
		if cc == "" {
			return "", apperrors.Format("select a country code")
		}
		full = cc + digits
	}

	if len(full) > MaxE164Digits || full[0] == '0' {
		return "", apperrors.Format(ErrPhoneTooShort)
	}
	return "+" + full, nil
}
