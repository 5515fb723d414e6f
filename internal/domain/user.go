package domain

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is keyed by the chat platform id; ids are never generated here.
type User struct {
	UserID      int64      `json:"user_id"`
	Role        Role       `json:"role"`
	HasAccess   bool       `json:"has_access"`
	AccessUntil *time.Time `json:"access_until"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AccessState is the access dimension of a user, derived from HasAccess and AccessUntil.
type AccessState string

const (
	AccessNone      AccessState = "none"
	AccessTimed     AccessState = "timed"
	AccessUnlimited AccessState = "unlimited"
)

func (u *User) AccessState() AccessState {
	if u.IsAdmin() {
		return AccessUnlimited
	}
	if !u.HasAccess {
		return AccessNone
	}
	if u.AccessUntil == nil {
		return AccessUnlimited
	}
	return AccessTimed
}

// HasValidAccess reports whether the user may use paid features at now.
// It does not mutate the record; expiry is persisted by the access service.
func (u *User) HasValidAccess(now time.Time) bool {
	if u.IsAdmin() {
		return true
	}
	if !u.HasAccess {
		return false
	}
	return u.AccessUntil == nil || !u.AccessUntil.Before(now)
}

// Expired reports a timed grant whose bound has passed.
func (u *User) Expired(now time.Time) bool {
	return !u.IsAdmin() && u.HasAccess && u.AccessUntil != nil && u.AccessUntil.Before(now)
}
