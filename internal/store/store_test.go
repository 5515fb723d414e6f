package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/set-night/ledgerbot/internal/repository"
	"github.com/shopspring/decimal"
)

const ownerID = 8382571809

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *repository.MemoryBackend) {
	t.Helper()
	b := repository.NewMemoryBackend()
	return New(b, Options{OwnerID: ownerID, Timeout: time.Second, CacheTTL: ttl}), b
}

func TestLoadSeedsAndPersistsEmptySnapshot(t *testing.T) {
	s, b := newTestStore(t, 0)

	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	owner, ok := snap.Users[domain.Key(ownerID)]
	if !ok || !owner.IsAdmin() || !owner.HasAccess {
		t.Fatalf("owner not seeded: %+v", owner)
	}
	if b.Saves() != 1 {
		t.Fatalf("fresh snapshot must be persisted, saves = %d", b.Saves())
	}

	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.Saves() != 1 {
		t.Fatalf("healthy load must not write, saves = %d", b.Saves())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}

	before, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Save(ctx, before) {
		t.Fatal("Save returned false")
	}
	after, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}

	before.Revision, after.Revision = "", ""
	if !reflect.DeepEqual(before, after) {
		a, _ := json.Marshal(before)
		b, _ := json.Marshal(after)
		t.Fatalf("round trip changed snapshot:\n%s\n%s", a, b)
	}
}

func TestNextIDConcurrent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Minute)

	base, err := s.NextID(ctx, domain.KindSession)
	if err != nil {
		t.Fatal(err)
	}

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.NextID(ctx, domain.KindSession)
			if err != nil {
				t.Error(err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	for id := base + 1; id <= base+n; id++ {
		if !seen[id] {
			t.Fatalf("missing id %d", id)
		}
	}

	snap, _ := s.Load(ctx)
	if got := snap.Counters.Current(domain.KindSession); got != base+n {
		t.Fatalf("persisted counter = %d, want %d", got, base+n)
	}
}

func TestNextIDSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	b := repository.NewMemoryBackend()
	first := New(b, Options{OwnerID: ownerID})
	for i := 0; i < 3; i++ {
		if _, err := first.NextID(ctx, domain.KindDebt); err != nil {
			t.Fatal(err)
		}
	}

	second := New(b, Options{OwnerID: ownerID})
	id, err := second.NextID(ctx, domain.KindDebt)
	if err != nil {
		t.Fatal(err)
	}
	if id != 4 {
		t.Fatalf("id after restart = %d, want 4", id)
	}
}

func TestStaleSaveIsRejected(t *testing.T) {
	ctx := context.Background()
	b := repository.NewMemoryBackend()
	a := New(b, Options{OwnerID: ownerID})
	c := New(b, Options{OwnerID: ownerID})
	if err := a.Init(ctx); err != nil {
		t.Fatal(err)
	}

	stale, err := a.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.NextID(ctx, domain.KindSession); err != nil {
		t.Fatal(err)
	}

	stale.Counters.SessionID = 100
	if a.Save(ctx, stale) {
		t.Fatal("stale save must be rejected")
	}

	fresh, _ := c.Load(ctx)
	if fresh.Counters.SessionID != 1 {
		t.Fatalf("counter clobbered: %d", fresh.Counters.SessionID)
	}
}

func TestUpdateReportsRaceLost(t *testing.T) {
	ctx := context.Background()
	b := &racingBackend{MemoryBackend: repository.NewMemoryBackend()}
	s := New(b, Options{OwnerID: ownerID})
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}

	b.interfere = true
	err := s.Update(ctx, func(snap *domain.Snapshot) error {
		snap.Counters.DebtID++
		return nil
	})
	if !errors.Is(err, domain.ErrRaceLost) {
		t.Fatalf("Update = %v, want ErrRaceLost", err)
	}
	if domain.Outcome(err) != domain.OutcomeRaceLost {
		t.Fatalf("outcome = %s", domain.Outcome(err))
	}
}

// racingBackend lets another writer commit between Load and Save.
type racingBackend struct {
	*repository.MemoryBackend
	interfere bool
}

func (b *racingBackend) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := b.MemoryBackend.Load(ctx)
	if err != nil || !b.interfere {
		return snap, err
	}
	other, _ := b.MemoryBackend.Load(ctx)
	other.Counters.SessionID++
	if err := b.MemoryBackend.Save(ctx, other); err != nil {
		return nil, err
	}
	return snap, nil
}

func TestCacheReflectsWritesImmediately(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Hour)
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	err := s.Update(ctx, func(snap *domain.Snapshot) error {
		snap.Transactions["1"] = domain.Transaction{ID: 1, SessionID: 1, Type: domain.TxTypeSale, Amount: decimal.NewFromInt(5)}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Transactions["1"]; !ok {
		t.Fatal("read after write did not observe the write")
	}
}

func TestLoadReturnsPrivateCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Hour)

	snap, _ := s.Load(ctx)
	snap.Counters.SessionID = 77
	delete(snap.Users, domain.Key(ownerID))

	again, _ := s.Load(ctx)
	if again.Counters.SessionID == 77 || len(again.Users) == 0 {
		t.Fatal("mutating a loaded snapshot leaked into the cache")
	}
}

func TestStorageFailuresSurface(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, 0)
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}

	b.SetFailure(errors.New("disk unplugged"))
	if _, err := s.Load(ctx); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Load = %v, want ErrStorageUnavailable", err)
	}
	if _, err := s.NextID(ctx, domain.KindSession); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("NextID = %v, want ErrStorageUnavailable", err)
	}
	if s.Save(ctx, domain.NewSnapshot(ownerID, time.Now())) {
		t.Fatal("Save must report false on failure")
	}

	b.SetFailure(nil)
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Counters.SessionID != 0 {
		t.Fatal("failed allocation must not be persisted")
	}
}

func TestUpdateErrorSkipsWrite(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, 0)
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}
	saves := b.Saves()

	boom := errors.New("validation")
	if err := s.Update(ctx, func(snap *domain.Snapshot) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Update = %v", err)
	}
	if err := s.Update(ctx, func(snap *domain.Snapshot) error { return ErrNoChange }); err != nil {
		t.Fatalf("ErrNoChange must not surface: %v", err)
	}
	if b.Saves() != saves {
		t.Fatalf("unexpected writes: %d", b.Saves()-saves)
	}
}

func TestCorruptSnapshotIsReplaced(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, 0)
	b.SetRaw([]byte("{{{"))

	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := snap.Users[domain.Key(ownerID)]; !ok {
		t.Fatal("owner missing from replacement snapshot")
	}
	if b.Saves() != 1 {
		t.Fatalf("replacement not persisted, saves = %d", b.Saves())
	}
}

func TestOwnerIsRestoredOnLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}

	snap, _ := s.Load(ctx)
	owner := snap.Users[domain.Key(ownerID)]
	owner.Role = domain.RoleUser
	owner.HasAccess = false
	snap.Users[domain.Key(ownerID)] = owner
	if !s.Save(ctx, snap) {
		t.Fatal("save failed")
	}

	again, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := again.Users[domain.Key(ownerID)]; !got.IsAdmin() || !got.HasAccess {
		t.Fatalf("owner not restored: %+v", got)
	}
}

func TestSaveKeepsOwnerAdmin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Minute)
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}

	snap, _ := s.Load(ctx)
	owner := snap.Users[domain.Key(ownerID)]
	owner.Role = domain.RoleUser
	owner.HasAccess = false
	snap.Users[domain.Key(ownerID)] = owner
	if !s.Save(ctx, snap) {
		t.Fatal("save failed")
	}

	// Served from the cache.
	again, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := again.Users[domain.Key(ownerID)]
	if !got.IsAdmin() || !got.HasAccess || got.AccessUntil != nil {
		t.Fatalf("owner demoted through Save: %+v", got)
	}
}

func TestUpdateKeepsOwnerAdmin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, time.Minute)

	err := s.Update(ctx, func(snap *domain.Snapshot) error {
		owner := snap.Users[domain.Key(ownerID)]
		owner.Role = domain.RoleUser
		snap.Users[domain.Key(ownerID)] = owner
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	snap, _ := s.Load(ctx)
	if got := snap.Users[domain.Key(ownerID)]; !got.IsAdmin() {
		t.Fatalf("owner demoted through Update: %+v", got)
	}
}

func newFileStore(t *testing.T, path string) *Store {
	t.Helper()
	return New(repository.NewFileBackend(path), Options{OwnerID: ownerID, Timeout: 5 * time.Second, CacheTTL: time.Minute})
}

func TestFileStoreNextIDConcurrent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot_data.json")
	s := newFileStore(t, path)

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.NextID(ctx, domain.KindTransaction)
			if err != nil {
				t.Error(err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] || id < 1 || id > n {
			t.Fatalf("unexpected id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d ids, want %d", len(seen), n)
	}

	reopened := newFileStore(t, path)
	next, err := reopened.NextID(ctx, domain.KindTransaction)
	if err != nil {
		t.Fatal(err)
	}
	if next != n+1 {
		t.Fatalf("after restart NextID = %d, want %d", next, n+1)
	}
}

func TestFileStoreReplacesCorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "bot_data.json")
	if err := os.WriteFile(path, []byte("{\"users\": ["), 0o600); err != nil {
		t.Fatal(err)
	}

	s := newFileStore(t, path)
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := snap.Users[domain.Key(ownerID)]; !ok {
		t.Fatal("owner missing from replacement snapshot")
	}

	aside, _ := filepath.Glob(path + ".corrupt-*")
	if len(aside) != 1 {
		t.Fatalf("corrupt file not kept aside: %v", aside)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("replacement not persisted: %v", err)
	}
	var stored domain.Snapshot
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("persisted snapshot unreadable: %v", err)
	}
	if owner := stored.Users[domain.Key(ownerID)]; !owner.IsAdmin() {
		t.Fatalf("persisted owner = %+v", owner)
	}
}

func TestBackendTimeout(t *testing.T) {
	s := New(blockingBackend{}, Options{OwnerID: ownerID, Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := s.Load(context.Background())
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Load = %v, want ErrStorageUnavailable", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout not enforced")
	}
}

type blockingBackend struct{}

func (blockingBackend) Load(ctx context.Context) (*domain.Snapshot, error) {
	<-ctx.Done()
	time.Sleep(10 * time.Millisecond)
	return nil, ctx.Err()
}

func (blockingBackend) Save(ctx context.Context, _ *domain.Snapshot) error {
	<-ctx.Done()
	return ctx.Err()
}
