package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSDT Currency = "USDT"
	CurrencyRUB  Currency = "RUB"
)

var Currencies = []Currency{CurrencyUSDT, CurrencyRUB}

// ParseCurrency accepts a currency code case-insensitively.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Currencies {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Session is a bookkeeping period owned by one user.
type Session struct {
	ID          int64           `json:"id"`
	OwnerUserID int64           `json:"user_id"`
	Name        string          `json:"name"`
	Budget      decimal.Decimal `json:"budget"`
	Currency    Currency        `json:"currency"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
}

// SessionDetails is the aggregate view computed from a session's children.
// Debts are reported separately and never enter Balance.
type SessionDetails struct {
	Session       Session
	TotalSales    decimal.Decimal
	SalesCount    int
	TotalExpenses decimal.Decimal
	OwedToMe      decimal.Decimal
	IOwe          decimal.Decimal
	Balance       decimal.Decimal
}
