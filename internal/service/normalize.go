package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// NormalizePhone reduces a user-entered phone number to canonical digit
// form: separators stripped, a leading 8 replaced with the country code
// 7. Valid numbers are 10 digits (without country code, 7 is prepended)
// or 11 digits starting with 7.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			// separator, skip
		default:
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidPhone, r)
		}
	}

	phone := digits.String()
	switch len(phone) {
	case 10:
		phone = "7" + phone
	case 11:
		if phone[0] == '8' {
			phone = "7" + phone[1:]
		}
		if phone[0] != '7' {
			return "", fmt.Errorf("%w: must start with country code 7", ErrInvalidPhone)
		}
	default:
		return "", fmt.Errorf("%w: expected 10 or 11 digits, got %d", ErrInvalidPhone, len(phone))
	}

	return phone, nil
}

// NormalizeName builds the case and whitespace insensitive key used for
// roster deduplication
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// generateCode produces a random code of the given number of decimal
// digits, left padded with zeros
func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
