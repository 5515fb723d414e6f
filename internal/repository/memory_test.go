package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/set-night/ledgerbot/internal/domain"
)

func TestMemoryBackendRevisions(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	if _, err := b.Load(ctx); !errors.Is(err, domain.ErrSnapshotMissing) {
		t.Fatalf("empty Load = %v", err)
	}

	snap := domain.NewSnapshot(1, time.Now())
	if err := b.Save(ctx, snap); err != nil {
		t.Fatal(err)
	}
	stale := &domain.Snapshot{Revision: "old"}
	stale.Normalize()
	if err := b.Save(ctx, stale); !errors.Is(err, domain.ErrRaceLost) {
		t.Fatalf("stale Save = %v", err)
	}
	if b.Saves() != 1 {
		t.Fatalf("saves = %d", b.Saves())
	}
}

func TestMemoryBackendFailure(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	b.SetFailure(errors.New("disk gone"))

	if _, err := b.Load(ctx); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Load = %v", err)
	}
	if err := b.Save(ctx, domain.NewSnapshot(1, time.Now())); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Save = %v", err)
	}

	b.SetFailure(nil)
	b.SetRaw([]byte("]["))
	if _, err := b.Load(ctx); !errors.Is(err, domain.ErrSnapshotCorrupt) {
		t.Fatalf("corrupt Load = %v", err)
	}
}
