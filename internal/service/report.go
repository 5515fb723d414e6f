package service

import (
	"context"
	"fmt"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/shopspring/decimal"
)

// GetDetails computes the aggregate view of a session.
func (s *LedgerService) GetDetails(ctx context.Context, sessionID int64) (*domain.SessionDetails, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get details: %w", err)
	}
	sess, ok := snap.Sessions[domain.Key(sessionID)]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	details := Aggregate(snap, sess)
	return &details, nil
}

// Aggregate sums the session's transactions and open debts. Debts are
// reported on their own and do not enter the balance.
func Aggregate(snap *domain.Snapshot, sess domain.Session) domain.SessionDetails {
	d := domain.SessionDetails{
		Session:       sess,
		TotalSales:    decimal.Zero,
		TotalExpenses: decimal.Zero,
		OwedToMe:      decimal.Zero,
		IOwe:          decimal.Zero,
	}

	for _, tx := range snap.Transactions {
		if tx.SessionID != sess.ID {
			continue
		}
		switch tx.Type {
		case domain.TxTypeSale:
			d.TotalSales = d.TotalSales.Add(tx.Amount)
			d.TotalExpenses = d.TotalExpenses.Add(tx.ExpenseAmount)
			d.SalesCount++
		case domain.TxTypeExpense:
			d.TotalExpenses = d.TotalExpenses.Add(tx.Amount)
		}
	}

	for _, debt := range snap.Debts {
		if debt.SessionID != sess.ID || debt.IsRepaid {
			continue
		}
		switch debt.Type {
		case domain.DebtOwedToMe:
			d.OwedToMe = d.OwedToMe.Add(debt.Amount)
		case domain.DebtIOwe:
			d.IOwe = d.IOwe.Add(debt.Amount)
		}
	}

	d.Balance = d.TotalSales.Sub(d.TotalExpenses)
	return d
}
