package service

import (
	"errors"
	"testing"

	"github.com/set-night/ledgerbot/internal/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"100", "100", false},
		{"12,50", "12.5", false},
		{" 0.01 ", "0.01", false},
		{"1 000,5", "1000.5", false},
		{"-3", "-3", false},
		{"", "", true},
		{"abc", "", true},
		{"1,2,3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.err {
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Fatalf("err = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.want {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateCountsCharacters(t *testing.T) {
	if got := truncate("привет", 3); got != "при" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("ok", 5); got != "ok" {
		t.Fatalf("truncate short = %q", got)
	}
}
