package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/set-night/ledgerbot/internal/domain"
)

// ErrNoChange may be returned from an Update function to skip the write.
var ErrNoChange = errors.New("no change")

// Backend persists whole snapshots. Save must reject a snapshot whose
// Revision is not the stored one with domain.ErrRaceLost and advance
// snap.Revision on success.
type Backend interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, snap *domain.Snapshot) error
}

type Options struct {
	OwnerID  int64
	Timeout  time.Duration
	CacheTTL time.Duration
	Now      func() time.Time
}

// Store owns the canonical snapshot. All mutations go through one
// critical section per process; reads may be served from the cache.
type Store struct {
	backend Backend
	ownerID int64
	timeout time.Duration
	cache   *SnapshotCache
	now     func() time.Time

	mu sync.Mutex
}

func New(backend Backend, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Store{
		backend: backend,
		ownerID: opts.OwnerID,
		timeout: opts.Timeout,
		cache:   NewSnapshotCache(opts.CacheTTL, opts.Now),
		now:     opts.Now,
	}
}

func (s *Store) OwnerID() int64 {
	return s.ownerID
}

func (s *Store) Now() time.Time {
	return s.now()
}

// Init makes sure a complete snapshot with the owner seeded is persisted.
func (s *Store) Init(ctx context.Context) error {
	snap, err := s.mutate(ctx, nil)
	if err != nil {
		return err
	}
	slog.Info("store ready",
		"users", len(snap.Users),
		"sessions", len(snap.Sessions),
		"transactions", len(snap.Transactions),
		"debts", len(snap.Debts),
		"session_counter", snap.Counters.SessionID,
	)
	return nil
}

// Load returns a private copy of the current snapshot. A missing or
// corrupt backing document is replaced by an empty one, which is persisted.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	if cached := s.cache.Get(); cached != nil {
		return cached.Clone(), nil
	}

	gen := s.cache.Generation()
	snap, repair, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if repair {
		snap, err = s.mutate(ctx, nil)
		if err != nil {
			return nil, err
		}
		return snap.Clone(), nil
	}
	s.cache.Fill(gen, snap)
	return snap.Clone(), nil
}

// Save replaces the stored snapshot with snap. It reports false on any
// failure, including a revision conflict; failures are logged.
func (s *Store) Save(ctx context.Context, snap *domain.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := snap.Clone()
	next.Normalize()
	if s.restoreOwner(next) {
		slog.Warn("owner restored before save", "owner_id", s.ownerID)
	}
	if err := s.commit(ctx, next); err != nil {
		slog.Error("save snapshot", "error", err)
		return false
	}
	snap.Revision = next.Revision
	return true
}

// Update runs fn on a fresh copy of the snapshot inside the write critical
// section and persists the result. Nothing is written if fn fails.
func (s *Store) Update(ctx context.Context, fn func(snap *domain.Snapshot) error) error {
	_, err := s.mutate(ctx, fn)
	return err
}

// View runs fn against a read-only copy which may be one write stale.
func (s *Store) View(ctx context.Context, fn func(snap *domain.Snapshot) error) error {
	snap, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return fn(snap)
}

// NextID allocates the next id of kind. The incremented counter is
// persisted before the id is returned.
func (s *Store) NextID(ctx context.Context, kind domain.EntityKind) (int64, error) {
	var id int64
	err := s.Update(ctx, func(snap *domain.Snapshot) error {
		var err error
		id, err = snap.Counters.Next(kind)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) mutate(ctx context.Context, fn func(snap *domain.Snapshot) error) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Writers always start from the backend, never from the cache.
	snap, repair, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	if fn != nil {
		if err := fn(snap); err != nil {
			if !errors.Is(err, ErrNoChange) {
				return nil, err
			}
			if !repair {
				return snap, nil
			}
		}
	} else if !repair {
		return snap, nil
	}

	s.restoreOwner(snap)
	if err := s.commit(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// read loads from the backend and reports whether the result must be
// written back: a fresh replacement, a structural repair or a restored owner.
func (s *Store) read(ctx context.Context) (*domain.Snapshot, bool, error) {
	snap, err := withTimeout(ctx, s.timeout, s.backend.Load)
	var corrupt *domain.CorruptError
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSnapshotMissing):
		slog.Warn("snapshot missing, starting with an empty one")
		return domain.NewSnapshot(s.ownerID, s.now()), true, nil
	case errors.As(err, &corrupt):
		slog.Error("snapshot corrupt, starting with an empty one", "error", corrupt.Err)
		fresh := domain.NewSnapshot(s.ownerID, s.now())
		fresh.Revision = corrupt.Revision
		return fresh, true, nil
	default:
		return nil, false, fmt.Errorf("load snapshot: %w", asUnavailable(err))
	}

	repair := snap.Normalize()
	if s.restoreOwner(snap) {
		repair = true
	}
	if repair {
		slog.Warn("snapshot repaired on load")
	}
	return snap, repair, nil
}

func (s *Store) restoreOwner(snap *domain.Snapshot) bool {
	key := domain.Key(s.ownerID)
	owner, ok := snap.Users[key]
	if ok && owner.IsAdmin() && owner.HasAccess && owner.AccessUntil == nil {
		return false
	}
	if !ok {
		owner = domain.User{UserID: s.ownerID, CreatedAt: s.now()}
	}
	owner.Role = domain.RoleAdmin
	owner.HasAccess = true
	owner.AccessUntil = nil
	snap.Users[key] = owner
	return true
}

func (s *Store) commit(ctx context.Context, snap *domain.Snapshot) error {
	_, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.Save(ctx, snap)
	})
	if err != nil {
		s.cache.Invalidate()
		if errors.Is(err, domain.ErrRaceLost) {
			return err
		}
		return fmt.Errorf("save snapshot: %w", asUnavailable(err))
	}
	s.cache.Set(snap.Clone())
	slog.Debug("snapshot committed", "revision", snap.Revision)
	return nil
}

func asUnavailable(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

type result[T any] struct {
	val T
	err error
}

// withTimeout bounds a backend call. On timeout the call is abandoned and
// reported as unavailable; backends write atomically so an abandoned write
// either lands whole or not at all.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, ctx.Err())
	}
}
