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
	"github.com/set-night/ledgerbot/internal/store"
	"github.com/shopspring/decimal"
)

func (s *LedgerService) AddDebt(ctx context.Context, sessionID int64, typ domain.DebtType, personName string, amount decimal.Decimal, description string) (int64, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidType, typ)
	}
	person, err := cleanPersonName(personName)
	if err != nil {
		return 0, err
	}
	if err := positive(amount); err != nil {
		return 0, err
	}
	description = truncate(strings.TrimSpace(description), config.DescriptionMaxLen)

	var id int64
	err = s.store.Update(ctx, func(snap *domain.Snapshot) error {
		if _, err := activeSession(snap, sessionID); err != nil {
			return err
		}
		var err error
		id, err = snap.Counters.Next(domain.KindDebt)
		if err != nil {
			return err
		}
		snap.Debts[domain.Key(id)] = domain.Debt{
			ID:          id,
			SessionID:   sessionID,
			Type:        typ,
			PersonName:  person,
			Amount:      amount,
			Description: description,
			CreatedAt:   s.store.Now(),
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add debt: %w", err)
	}
	slog.Info("debt added", "debt_id", id, "session_id", sessionID, "type", typ)
	return id, nil
}

func (s *LedgerService) Debt(ctx context.Context, id int64) (*domain.Debt, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get debt: %w", err)
	}
	d, ok := snap.Debts[domain.Key(id)]
	if !ok {
		return nil, domain.ErrDebtNotFound
	}
	return &d, nil
}

// UpdateDebt sets one field from its text form. is_repaid may be set either
// way here; MarkRepaid never reopens a debt.
func (s *LedgerService) UpdateDebt(ctx context.Context, id int64, field, value string) error {
	apply, err := debtSetter(field, value)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, func(snap *domain.Snapshot) error {
		d, ok := snap.Debts[domain.Key(id)]
		if !ok {
			return domain.ErrDebtNotFound
		}
		if _, err := activeSession(snap, d.SessionID); err != nil {
			return err
		}
		now := s.store.Now()
		apply(&d)
		switch {
		case d.IsRepaid && d.RepaidAt == nil:
			d.RepaidAt = timePtr(now)
		case !d.IsRepaid:
			d.RepaidAt = nil
		}
		d.UpdatedAt = timePtr(now)
		snap.Debts[domain.Key(id)] = d
		return nil
	})
	if err != nil {
		return fmt.Errorf("update debt: %w", err)
	}
	slog.Info("debt updated", "debt_id", id, "field", field)
	return nil
}

func debtSetter(field, value string) (func(*domain.Debt), error) {
	switch field {
	case domain.DebtFieldAmount:
		amount, err := ParseAmount(value)
		if err != nil {
			return nil, err
		}
		if err := nonNegative(amount); err != nil {
			return nil, err
		}
		return func(d *domain.Debt) { d.Amount = amount }, nil
	case domain.DebtFieldPersonName:
		person, err := cleanPersonName(value)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Debt) { d.PersonName = person }, nil
	case domain.DebtFieldDescription:
		desc := truncate(strings.TrimSpace(value), config.DescriptionMaxLen)
		return func(d *domain.Debt) { d.Description = desc }, nil
	case domain.DebtFieldIsRepaid:
		repaid, ok := ParseBool(value)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a yes/no value", domain.ErrInvalidArgument, value)
		}
		return func(d *domain.Debt) { d.IsRepaid = repaid }, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
}

// MarkRepaid settles a debt. Marking a repaid debt again changes nothing.
func (s *LedgerService) MarkRepaid(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		d, ok := snap.Debts[domain.Key(id)]
		if !ok {
			return domain.ErrDebtNotFound
		}
		if _, err := activeSession(snap, d.SessionID); err != nil {
			return err
		}
		if d.IsRepaid {
			return store.ErrNoChange
		}
		d.IsRepaid = true
		d.RepaidAt = timePtr(s.store.Now())
		snap.Debts[domain.Key(id)] = d
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark repaid: %w", err)
	}
	slog.Info("debt repaid", "debt_id", id)
	return nil
}

func (s *LedgerService) DeleteDebt(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		d, ok := snap.Debts[domain.Key(id)]
		if !ok {
			return domain.ErrDebtNotFound
		}
		if _, err := activeSession(snap, d.SessionID); err != nil {
			return err
		}
		delete(snap.Debts, domain.Key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	slog.Info("debt deleted", "debt_id", id)
	return nil
}

// ListDebts returns debts of typ in a session, newest first, optionally
// filtered by a case-insensitive match on person name or description.
func (s *LedgerService) ListDebts(ctx context.Context, sessionID int64, typ domain.DebtType, search string) ([]domain.Debt, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidType, typ)
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	if _, ok := snap.Sessions[domain.Key(sessionID)]; !ok {
		return nil, domain.ErrSessionNotFound
	}
	search = strings.TrimSpace(search)

	var out []domain.Debt
	for _, d := range snap.Debts {
		if d.SessionID != sessionID || d.Type != typ {
			continue
		}
		if search != "" && !containsFold(d.PersonName, search) && !containsFold(d.Description, search) {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Debt) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func cleanPersonName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.ErrInvalidPersonName
	}
	return truncate(s, config.PersonNameMaxLen), nil
}
