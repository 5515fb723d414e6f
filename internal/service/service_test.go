package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/set-night/ledgerbot/internal/repository"
	"github.com/set-night/ledgerbot/internal/store"
	"github.com/shopspring/decimal"
)

const ownerID = 8382571809

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Now advances by a second on every call so creation times are distinct.
func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*store.Store, *clock) {
	t.Helper()
	clk := newClock()
	st := store.New(repository.NewMemoryBackend(), store.Options{
		OwnerID:  ownerID,
		Timeout:  time.Second,
		CacheTTL: time.Minute,
		Now:      clk.Now,
	})
	if err := st.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return st, clk
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
