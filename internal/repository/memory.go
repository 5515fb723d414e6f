package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/set-night/ledgerbot/internal/domain"
)

// MemoryBackend keeps the encoded snapshot in process memory. It goes
// through the same JSON encoding and revision checks as the durable backends.
type MemoryBackend struct {
	mu       sync.Mutex
	data     []byte
	revision string
	failErr  error
	saves    int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// SetFailure makes every following Load and Save return err; nil clears it.
func (b *MemoryBackend) SetFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failErr = err
}

// SetRaw replaces the stored bytes, e.g. to simulate corruption.
func (b *MemoryBackend) SetRaw(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = data
	b.revision = uuid.NewString()
}

// Saves returns the number of successful commits.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func (b *MemoryBackend) Load(ctx context.Context) (*domain.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx); err != nil {
		return nil, err
	}
	if b.data == nil {
		return nil, domain.ErrSnapshotMissing
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(b.data, &snap); err != nil {
		return nil, &domain.CorruptError{Revision: b.revision, Err: err}
	}
	snap.Revision = b.revision
	return &snap, nil
}

func (b *MemoryBackend) Save(ctx context.Context, snap *domain.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(ctx); err != nil {
		return err
	}
	if snap.Revision != b.revision {
		return fmt.Errorf("save snapshot: %w", domain.ErrRaceLost)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	b.data = data
	b.revision = uuid.NewString()
	b.saves++
	snap.Revision = b.revision
	return nil
}

func (b *MemoryBackend) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if b.failErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, b.failErr)
	}
	return nil
}
