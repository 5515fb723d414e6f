package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/set-night/ledgerbot/internal/config"
	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/set-night/ledgerbot/internal/store"
	"github.com/shopspring/decimal"
)

// LedgerService manages sessions and their transactions and debts.
type LedgerService struct {
	store *store.Store
}

func NewLedgerService(st *store.Store) *LedgerService {
	return &LedgerService{store: st}
}

// CreateSession opens a new active session for owner and returns its id.
// The id is allocated and the session stored in one write.
func (s *LedgerService) CreateSession(ctx context.Context, owner int64, name string, budget decimal.Decimal, currency domain.Currency) (int64, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < config.SessionNameMin || n > config.SessionNameMax {
		return 0, fmt.Errorf("%w: length must be %d-%d", domain.ErrInvalidName, config.SessionNameMin, config.SessionNameMax)
	}
	if err := positive(budget); err != nil {
		return 0, err
	}
	if _, ok := domain.ParseCurrency(string(currency)); !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, currency)
	}

	var id int64
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		var err error
		id, err = snap.Counters.Next(domain.KindSession)
		if err != nil {
			return err
		}
		snap.Sessions[domain.Key(id)] = domain.Session{
			ID:          id,
			OwnerUserID: owner,
			Name:        name,
			Budget:      budget,
			Currency:    currency,
			IsActive:    true,
			CreatedAt:   s.store.Now(),
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session created", "session_id", id, "user_id", owner)
	return id, nil
}

// ListSessions returns owner's sessions, newest first.
func (s *LedgerService) ListSessions(ctx context.Context, owner int64) ([]domain.Session, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []domain.Session
	for _, sess := range snap.Sessions {
		if sess.OwnerUserID == owner {
			out = append(out, sess)
		}
	}
	slices.SortFunc(out, func(a, b domain.Session) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *LedgerService) Session(ctx context.Context, id int64) (*domain.Session, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess, ok := snap.Sessions[domain.Key(id)]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

// CloseSession marks a session inactive. Closing a closed session is a no-op.
func (s *LedgerService) CloseSession(ctx context.Context, id int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		sess, ok := snap.Sessions[domain.Key(id)]
		if !ok {
			return domain.ErrSessionNotFound
		}
		if !sess.IsActive {
			return store.ErrNoChange
		}
		sess.IsActive = false
		sess.ClosedAt = timePtr(s.store.Now())
		snap.Sessions[domain.Key(id)] = sess
		return nil
	})
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	slog.Info("session closed", "session_id", id)
	return nil
}

// activeSession returns the session id refers to, failing if it is closed.
func activeSession(snap *domain.Snapshot, id int64) (domain.Session, error) {
	sess, ok := snap.Sessions[domain.Key(id)]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if !sess.IsActive {
		return domain.Session{}, domain.ErrSessionClosed
	}
	return sess, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
