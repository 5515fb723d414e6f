package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxTypeSale    TxType = "sale"
	TxTypeExpense TxType = "expense"
)

func (t TxType) Valid() bool {
	return t == TxTypeSale || t == TxTypeExpense
}

type Transaction struct {
	ID            int64           `json:"id"`
	SessionID     int64           `json:"session_id"`
	Type          TxType          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	ExpenseAmount decimal.Decimal `json:"expense_amount"` // cost attributed to a sale, zero for expenses
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// Updatable transaction fields.
const (
	TxFieldAmount        = "amount"
	TxFieldExpenseAmount = "expense_amount"
	TxFieldDescription   = "description"
)
