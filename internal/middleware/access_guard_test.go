package middleware

import "testing"

func TestCommandName(t *testing.T) {
	tests := map[string]string{
		"/start":            "/start",
		"/Start@ledger_bot": "/start",
		"/sale 1 100":       "/sale",
		"hello":             "",
		"":                  "",
	}
	for in, want := range tests {
		if got := CommandName(in); got != want {
			t.Errorf("CommandName(%q) = %q, want %q", in, got, want)
		}
	}
}
