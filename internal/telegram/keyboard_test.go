package telegram

import (
	"testing"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/shopspring/decimal"
)

func TestSessionListKeyboardPaginates(t *testing.T) {
	var sessions []domain.Session
	for i := int64(1); i <= 5; i++ {
		sessions = append(sessions, domain.Session{ID: i, Name: "S", Budget: decimal.NewFromInt(10), Currency: domain.CurrencyUSDT, IsActive: true})
	}

	kb := SessionListKeyboard(sessions, 1, 2)
	rows := kb.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 2 sessions + pagination", len(rows))
	}
	if rows[0][0].CallbackData != "session_3" || rows[1][0].CallbackData != "session_4" {
		t.Fatalf("page content = %q, %q", rows[0][0].CallbackData, rows[1][0].CallbackData)
	}
	nav := rows[2]
	if len(nav) != 3 || nav[0].CallbackData != "sessions_page_0" || nav[2].CallbackData != "sessions_page_2" {
		t.Fatalf("pagination = %+v", nav)
	}

	last := SessionListKeyboard(sessions, 99, 2)
	if got := last.InlineKeyboard[0][0].CallbackData; got != "session_5" {
		t.Fatalf("out of range page shows %q", got)
	}
}

func TestSessionKeyboardHidesCloseWhenClosed(t *testing.T) {
	open := SessionKeyboard(domain.Session{ID: 7, IsActive: true})
	closed := SessionKeyboard(domain.Session{ID: 7})
	if len(open.InlineKeyboard) != 3 || len(closed.InlineKeyboard) != 2 {
		t.Fatalf("rows open=%d closed=%d", len(open.InlineKeyboard), len(closed.InlineKeyboard))
	}
	if open.InlineKeyboard[1][0].CallbackData != "close_7" {
		t.Fatalf("close button = %q", open.InlineKeyboard[1][0].CallbackData)
	}
}
