package domain

import (
	"fmt"
	"strconv"
	"time"
)

type EntityKind string

const (
	KindSession     EntityKind = "session_id"
	KindTransaction EntityKind = "transaction_id"
	KindDebt        EntityKind = "debt_id"
)

// Counters hold the last issued id per entity kind.
type Counters struct {
	SessionID     int64 `json:"session_id"`
	TransactionID int64 `json:"transaction_id"`
	DebtID        int64 `json:"debt_id"`
}

func (c *Counters) slot(kind EntityKind) (*int64, error) {
	switch kind {
	case KindSession:
		return &c.SessionID, nil
	case KindTransaction:
		return &c.TransactionID, nil
	case KindDebt:
		return &c.DebtID, nil
	}
	return nil, fmt.Errorf("%w: unknown entity kind %q", ErrInvalidArgument, kind)
}

// Next increments the counter for kind and returns the new value.
func (c *Counters) Next(kind EntityKind) (int64, error) {
	p, err := c.slot(kind)
	if err != nil {
		return 0, err
	}
	*p++
	return *p, nil
}

func (c *Counters) Current(kind EntityKind) int64 {
	p, err := c.slot(kind)
	if err != nil {
		return 0
	}
	return *p
}

// Snapshot is the complete persisted state. Revision is the backend's
// concurrency token for the version this snapshot was loaded from.
type Snapshot struct {
	Users        map[string]User        `json:"users"`
	Sessions     map[string]Session     `json:"sessions"`
	Transactions map[string]Transaction `json:"transactions"`
	Debts        map[string]Debt        `json:"debts"`
	Counters     Counters               `json:"counters"`

	Revision string `json:"-"`
}

// Key is the string form of an id used by every collection.
func Key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// NewSnapshot returns an empty snapshot with the owner seeded as an admin.
func NewSnapshot(ownerID int64, now time.Time) *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	s.Users[Key(ownerID)] = User{
		UserID:    ownerID,
		Role:      RoleAdmin,
		HasAccess: true,
		CreatedAt: now,
	}
	return s
}

// Normalize fills missing collections and lifts counters that fall behind
// existing ids. It reports whether anything was repaired.
func (s *Snapshot) Normalize() bool {
	repaired := false
	if s.Users == nil {
		s.Users = map[string]User{}
		repaired = true
	}
	if s.Sessions == nil {
		s.Sessions = map[string]Session{}
		repaired = true
	}
	if s.Transactions == nil {
		s.Transactions = map[string]Transaction{}
		repaired = true
	}
	if s.Debts == nil {
		s.Debts = map[string]Debt{}
		repaired = true
	}
	for _, v := range s.Sessions {
		if v.ID > s.Counters.SessionID {
			s.Counters.SessionID = v.ID
			repaired = true
		}
	}
	for _, v := range s.Transactions {
		if v.ID > s.Counters.TransactionID {
			s.Counters.TransactionID = v.ID
			repaired = true
		}
	}
	for _, v := range s.Debts {
		if v.ID > s.Counters.DebtID {
			s.Counters.DebtID = v.ID
			repaired = true
		}
	}
	return repaired
}

// Clone returns a deep copy safe to mutate independently.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Users:        make(map[string]User, len(s.Users)),
		Sessions:     make(map[string]Session, len(s.Sessions)),
		Transactions: make(map[string]Transaction, len(s.Transactions)),
		Debts:        make(map[string]Debt, len(s.Debts)),
		Counters:     s.Counters,
		Revision:     s.Revision,
	}
	for k, v := range s.Users {
		v.AccessUntil = cloneTime(v.AccessUntil)
		c.Users[k] = v
	}
	for k, v := range s.Sessions {
		v.ClosedAt = cloneTime(v.ClosedAt)
		c.Sessions[k] = v
	}
	for k, v := range s.Transactions {
		v.UpdatedAt = cloneTime(v.UpdatedAt)
		c.Transactions[k] = v
	}
	for k, v := range s.Debts {
		v.RepaidAt = cloneTime(v.RepaidAt)
		v.UpdatedAt = cloneTime(v.UpdatedAt)
		c.Debts[k] = v
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
