package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/shopspring/decimal"
)

func TestFileBackendMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	b := NewFileBackend(path)
	if b.Path() != path {
		t.Fatalf("Path = %q", b.Path())
	}
	if _, err := b.Load(context.Background()); !errors.Is(err, domain.ErrSnapshotMissing) {
		t.Fatalf("Load on missing file = %v, want ErrSnapshotMissing", err)
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewFileBackend(filepath.Join(t.TempDir(), "data.json"))

	snap := domain.NewSnapshot(1, time.Now().UTC())
	snap.Sessions["1"] = domain.Session{
		ID:          1,
		OwnerUserID: 42,
		Name:        "Shop",
		Budget:      decimal.RequireFromString("1000.50"),
		Currency:    domain.CurrencyUSDT,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	snap.Counters.SessionID = 1

	if err := b.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if snap.Revision == "" {
		t.Fatal("Save must advance the revision")
	}

	loaded, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Revision != snap.Revision {
		t.Fatalf("revision = %q, want %q", loaded.Revision, snap.Revision)
	}
	got := loaded.Sessions["1"]
	if got.Name != "Shop" || !got.Budget.Equal(decimal.RequireFromString("1000.50")) {
		t.Fatalf("unexpected session: %+v", got)
	}
	if loaded.Counters.SessionID != 1 {
		t.Fatalf("counter = %d", loaded.Counters.SessionID)
	}

	// Saving an unmodified load keeps the document stable.
	rev := loaded.Revision
	if err := b.Save(ctx, loaded); err != nil {
		t.Fatalf("Save unchanged: %v", err)
	}
	if loaded.Revision != rev {
		t.Fatal("identical content must produce the identical revision")
	}
}

func TestFileBackendStaleRevision(t *testing.T) {
	ctx := context.Background()
	b := NewFileBackend(filepath.Join(t.TempDir(), "data.json"))

	if err := b.Save(ctx, domain.NewSnapshot(1, time.Now())); err != nil {
		t.Fatal(err)
	}
	first, _ := b.Load(ctx)
	second, _ := b.Load(ctx)

	first.Counters.SessionID = 10
	if err := b.Save(ctx, first); err != nil {
		t.Fatalf("first writer: %v", err)
	}
	second.Counters.SessionID = 20
	if err := b.Save(ctx, second); !errors.Is(err, domain.ErrRaceLost) {
		t.Fatalf("second writer = %v, want ErrRaceLost", err)
	}

	loaded, _ := b.Load(ctx)
	if loaded.Counters.SessionID != 10 {
		t.Fatalf("stale write clobbered state: %d", loaded.Counters.SessionID)
	}
}

func TestFileBackendCorruptIsQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	b := NewFileBackend(path)

	_, err := b.Load(context.Background())
	if !errors.Is(err, domain.ErrSnapshotCorrupt) {
		t.Fatalf("Load = %v, want ErrSnapshotCorrupt", err)
	}
	var ce *domain.CorruptError
	if !errors.As(err, &ce) || ce.Revision != "" {
		t.Fatalf("expected CorruptError with empty revision, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("corrupt file should be moved aside")
	}

	entries, _ := os.ReadDir(dir)
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "data.json.corrupt-") {
			found = true
		}
	}
	if !found {
		t.Fatal("quarantined copy not found")
	}

	// A fresh snapshot can now be written in its place.
	if err := b.Save(context.Background(), domain.NewSnapshot(1, time.Now())); err != nil {
		t.Fatalf("Save after quarantine: %v", err)
	}
}

func TestFileBackendCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	b := NewFileBackend(path)
	if err := b.Save(context.Background(), domain.NewSnapshot(1, time.Now())); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("snapshot readable by others: %v", perm)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestFileBackendFailedWriteKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	b := NewFileBackend(path)

	snap := domain.NewSnapshot(1, time.Now())
	if err := b.Save(ctx, snap); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	snap.Counters.DebtID = 99
	if err := b.Save(cancelled, snap); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Save with cancelled ctx = %v", err)
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatal("failed save modified the durable snapshot")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}
