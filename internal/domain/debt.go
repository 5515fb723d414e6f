package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DebtType string

const (
	DebtOwedToMe DebtType = "owed_to_me"
	DebtIOwe     DebtType = "i_owe"
)

func (t DebtType) Valid() bool {
	return t == DebtOwedToMe || t == DebtIOwe
}

type Debt struct {
	ID          int64           `json:"id"`
	SessionID   int64           `json:"session_id"`
	Type        DebtType        `json:"type"`
	PersonName  string          `json:"person_name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	IsRepaid    bool            `json:"is_repaid"`
	CreatedAt   time.Time       `json:"created_at"`
	RepaidAt    *time.Time      `json:"repaid_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// Updatable debt fields.
const (
	DebtFieldAmount      = "amount"
	DebtFieldPersonName  = "person_name"
	DebtFieldDescription = "description"
	DebtFieldIsRepaid    = "is_repaid"
)
