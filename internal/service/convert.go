package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/shopspring/decimal"
)

// ParseAmount parses user input such as "12,50" or "12.5" into a decimal.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", domain.ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	return d, nil
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func positive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", domain.ErrInvalidAmount)
	}
	return nil
}

func nonNegative(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: must not be negative", domain.ErrInvalidAmount)
	}
	return nil
}

// ParseBool accepts the yes/no forms users type in either language.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "да", "д", "+":
		return true, true
	case "0", "false", "no", "n", "нет", "н", "-":
		return false, true
	}
	return false, false
}
