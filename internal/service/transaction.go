package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/set-night/ledgerbot/internal/config"
	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/shopspring/decimal"
)

// AddTransaction records a sale or an expense in an active session.
// The expense amount only applies to sales and is dropped for expenses.
func (s *LedgerService) AddTransaction(ctx context.Context, sessionID int64, typ domain.TxType, amount, expenseAmount decimal.Decimal, description string) (int64, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidType, typ)
	}
	if err := positive(amount); err != nil {
		return 0, err
	}
	if typ == domain.TxTypeExpense {
		expenseAmount = decimal.Zero
	}
	if err := nonNegative(expenseAmount); err != nil {
		return 0, err
	}
	description = truncate(strings.TrimSpace(description), config.DescriptionMaxLen)

	var id int64
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		if _, err := activeSession(snap, sessionID); err != nil {
			return err
		}
		var err error
		id, err = snap.Counters.Next(domain.KindTransaction)
		if err != nil {
			return err
		}
		snap.Transactions[domain.Key(id)] = domain.Transaction{
			ID:            id,
			SessionID:     sessionID,
			Type:          typ,
			Amount:        amount,
			ExpenseAmount: expenseAmount,
			Description:   description,
			Date:          s.store.Now(),
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}
	slog.Info("transaction added", "transaction_id", id, "session_id", sessionID, "type", typ)
	return id, nil
}

func (s *LedgerService) Transaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	tx, ok := snap.Transactions[domain.Key(id)]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &tx, nil
}

// UpdateTransaction sets one field from its text form. Only amount,
// expense_amount and description may be changed.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, field, value string) error {
	apply, err := transactionSetter(field, value)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, func(snap *domain.Snapshot) error {
		tx, ok := snap.Transactions[domain.Key(id)]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		if _, err := activeSession(snap, tx.SessionID); err != nil {
			return err
		}
		if err := apply(&tx); err != nil {
			return err
		}
		tx.UpdatedAt = timePtr(s.store.Now())
		snap.Transactions[domain.Key(id)] = tx
		return nil
	})
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	slog.Info("transaction updated", "transaction_id", id, "field", field)
	return nil
}

func transactionSetter(field, value string) (func(*domain.Transaction) error, error) {
	switch field {
	case domain.TxFieldAmount, domain.TxFieldExpenseAmount:
		d, err := ParseAmount(value)
		if err != nil {
			return nil, err
		}
		if err := nonNegative(d); err != nil {
			return nil, err
		}
		if field == domain.TxFieldAmount {
			return func(tx *domain.Transaction) error {
				tx.Amount = d
				return nil
			}, nil
		}
		return func(tx *domain.Transaction) error {
			if tx.Type == domain.TxTypeExpense && !d.IsZero() {
				return fmt.Errorf("%w: expenses carry no expense amount", domain.ErrInvalidArgument)
			}
			tx.ExpenseAmount = d
			return nil
		}, nil
	case domain.TxFieldDescription:
		desc := truncate(strings.TrimSpace(value), config.DescriptionMaxLen)
		return func(tx *domain.Transaction) error {
			tx.Description = desc
			return nil
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		tx, ok := snap.Transactions[domain.Key(id)]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		if _, err := activeSession(snap, tx.SessionID); err != nil {
			return err
		}
		delete(snap.Transactions, domain.Key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.Info("transaction deleted", "transaction_id", id)
	return nil
}

// ListTransactions returns transactions of typ in a session, newest first,
// optionally filtered by a case-insensitive description substring.
func (s *LedgerService) ListTransactions(ctx context.Context, sessionID int64, typ domain.TxType, search string) ([]domain.Transaction, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidType, typ)
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if _, ok := snap.Sessions[domain.Key(sessionID)]; !ok {
		return nil, domain.ErrSessionNotFound
	}
	search = strings.TrimSpace(search)

	var out []domain.Transaction
	for _, tx := range snap.Transactions {
		if tx.SessionID != sessionID || tx.Type != typ {
			continue
		}
		if search != "" && !containsFold(tx.Description, search) {
			continue
		}
		out = append(out, tx)
	}
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}
