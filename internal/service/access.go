package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/set-night/ledgerbot/internal/store"
)

type AccessService struct {
	store *store.Store
}

func NewAccessService(st *store.Store) *AccessService {
	return &AccessService{store: st}
}

// EnsureUser returns the user record, creating a default one if absent.
func (s *AccessService) EnsureUser(ctx context.Context, userID int64) (*domain.User, bool, error) {
	var (
		user    domain.User
		created bool
	)
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		var ok bool
		user, ok = snap.Users[domain.Key(userID)]
		if ok {
			return store.ErrNoChange
		}
		user = newUser(userID, s.store.Now())
		snap.Users[domain.Key(userID)] = user
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}
	if created {
		slog.Info("user registered", "user_id", userID)
	}
	return &user, created, nil
}

func (s *AccessService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	user, ok := snap.Users[domain.Key(userID)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// Role defaults to user for unknown ids.
func (s *AccessService) Role(ctx context.Context, userID int64) (domain.Role, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if domain.Outcome(err) == domain.OutcomeNotFound {
			return domain.RoleUser, nil
		}
		return "", err
	}
	return user.Role, nil
}

func (s *AccessService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	role, err := s.Role(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

// CheckAccess reports whether userID may use paid features. An expired
// timed grant is downgraded and persisted on the spot.
func (s *AccessService) CheckAccess(ctx context.Context, userID int64) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if domain.Outcome(err) == domain.OutcomeNotFound {
			return false, nil
		}
		return false, err
	}

	now := s.store.Now()
	if !user.Expired(now) {
		return user.HasValidAccess(now), nil
	}

	var allowed bool
	err = s.store.Update(ctx, func(snap *domain.Snapshot) error {
		u, ok := snap.Users[domain.Key(userID)]
		if !ok {
			return domain.ErrUserNotFound
		}
		if !u.Expired(now) {
			allowed = u.HasValidAccess(now)
			return store.ErrNoChange
		}
		u.HasAccess = false
		u.AccessUntil = nil
		snap.Users[domain.Key(userID)] = u
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("expire access: %w", err)
	}
	if !allowed {
		slog.Info("access expired", "user_id", userID)
	}
	return allowed, nil
}

// GrantAccess opens access for days, or without a bound when days is 0.
func (s *AccessService) GrantAccess(ctx context.Context, userID int64, days int) (*domain.User, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", domain.ErrInvalidArgument)
	}
	var user domain.User
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		user = userOrNew(snap, userID, s.store.Now())
		user.HasAccess = true
		user.AccessUntil = nil
		if days > 0 {
			until := s.store.Now().Add(time.Duration(days) * 24 * time.Hour)
			user.AccessUntil = &until
		}
		snap.Users[domain.Key(userID)] = user
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("grant access: %w", err)
	}
	slog.Info("access granted", "user_id", userID, "days", days)
	return &user, nil
}

func (s *AccessService) RevokeAccess(ctx context.Context, userID int64) error {
	if userID == s.store.OwnerID() {
		return domain.ErrOwnerDemotion
	}
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		user, ok := snap.Users[domain.Key(userID)]
		if !ok {
			return domain.ErrUserNotFound
		}
		user.HasAccess = false
		user.AccessUntil = nil
		snap.Users[domain.Key(userID)] = user
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	slog.Info("access revoked", "user_id", userID)
	return nil
}

func (s *AccessService) PromoteAdmin(ctx context.Context, userID int64) error {
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		user := userOrNew(snap, userID, s.store.Now())
		if user.IsAdmin() {
			return store.ErrNoChange
		}
		user.Role = domain.RoleAdmin
		user.HasAccess = true
		snap.Users[domain.Key(userID)] = user
		return nil
	})
	if err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	slog.Info("admin added", "user_id", userID)
	return nil
}

func (s *AccessService) DemoteAdmin(ctx context.Context, userID int64) error {
	if userID == s.store.OwnerID() {
		return domain.ErrOwnerDemotion
	}
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		user, ok := snap.Users[domain.Key(userID)]
		if !ok {
			return domain.ErrUserNotFound
		}
		if !user.IsAdmin() {
			return store.ErrNoChange
		}
		user.Role = domain.RoleUser
		snap.Users[domain.Key(userID)] = user
		return nil
	})
	if err != nil {
		return fmt.Errorf("demote admin: %w", err)
	}
	slog.Info("admin removed", "user_id", userID)
	return nil
}

// GrantAll gives unlimited access to every non-admin user without valid
// access. Admins and users with a running grant are left untouched.
func (s *AccessService) GrantAll(ctx context.Context) (int, error) {
	var changed int
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		now := s.store.Now()
		for key, user := range snap.Users {
			if user.IsAdmin() || user.HasValidAccess(now) {
				continue
			}
			user.HasAccess = true
			user.AccessUntil = nil
			snap.Users[key] = user
			changed++
		}
		if changed == 0 {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("grant access to all: %w", err)
	}
	slog.Info("access granted to all", "users", changed)
	return changed, nil
}

// RevokeAllTemporary closes unlimited grants held by non-admin users, the
// kind GrantAll hands out. Paid timed grants survive.
func (s *AccessService) RevokeAllTemporary(ctx context.Context) (int, error) {
	var changed int
	err := s.store.Update(ctx, func(snap *domain.Snapshot) error {
		for key, user := range snap.Users {
			if user.IsAdmin() || !user.HasAccess || user.AccessUntil != nil {
				continue
			}
			user.HasAccess = false
			snap.Users[key] = user
			changed++
		}
		if changed == 0 {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("revoke temporary access: %w", err)
	}
	slog.Info("temporary access revoked", "users", changed)
	return changed, nil
}

// ListUsers returns all users ordered by id.
func (s *AccessService) ListUsers(ctx context.Context) ([]domain.User, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		switch {
		case a.UserID < b.UserID:
			return -1
		case a.UserID > b.UserID:
			return 1
		}
		return 0
	})
	return users, nil
}

type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceAccess   Audience = "access"
	AudienceNoAccess Audience = "no_access"
)

func ParseAudience(s string) (Audience, bool) {
	switch a := Audience(s); a {
	case AudienceAll, AudienceAccess, AudienceNoAccess:
		return a, true
	}
	return "", false
}

// Audience resolves broadcast recipients.
func (s *AccessService) Audience(ctx context.Context, audience Audience) ([]int64, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := s.store.Now()
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		valid := u.HasValidAccess(now)
		switch audience {
		case AudienceAll:
		case AudienceAccess:
			if !valid {
				continue
			}
		case AudienceNoAccess:
			if valid {
				continue
			}
		default:
			return nil, fmt.Errorf("%w: unknown audience %q", domain.ErrInvalidArgument, audience)
		}
		ids = append(ids, u.UserID)
	}
	return ids, nil
}

// SeedAdmins promotes configured admin ids at startup.
func (s *AccessService) SeedAdmins(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if err := s.PromoteAdmin(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func newUser(userID int64, now time.Time) domain.User {
	return domain.User{
		UserID:    userID,
		Role:      domain.RoleUser,
		CreatedAt: now,
	}
}

func userOrNew(snap *domain.Snapshot, userID int64, now time.Time) domain.User {
	if u, ok := snap.Users[domain.Key(userID)]; ok {
		return u
	}
	return newUser(userID, now)
}
