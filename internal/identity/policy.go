package identity

import (
	"strings"
	"unicode"
)

// MinSecretLength - минимальная длина секрета продавца.
const MinSecretLength = 8

// MaxSecretBytes - предел bcrypt: более длинный секрет не хэшируется.
const MaxSecretBytes = 72

// PolicyError перечисляет невыполненные правила политики секрета.
type PolicyError struct {
	Unmet []string
}

func (e *PolicyError) Error() string {
	return "secret key must " + strings.Join(e.Unmet, ", ")
}

// ValidateSecretPolicy проверяет длину и наличие символов всех четырёх классов.
func ValidateSecretPolicy(raw string) error {
	if raw == "" {
		return ErrEmptySecret
	}
	var upper, lower, digit, symbol bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	var unmet []string
	if len([]rune(raw)) < MinSecretLength {
		unmet = append(unmet, "be at least 8 characters long")
	}
	if len(raw) > MaxSecretBytes {
		unmet = append(unmet, "be at most 72 bytes long")
	}
	if !upper {
		unmet = append(unmet, "contain an uppercase letter")
	}
	if !lower {
		unmet = append(unmet, "contain a lowercase letter")
	}
	if !digit {
		unmet = append(unmet, "contain a digit")
	}
	if !symbol {
		unmet = append(unmet, "contain a symbol")
	}
	if len(unmet) > 0 {
		return &PolicyError{Unmet: unmet}
	}
	return nil
}
