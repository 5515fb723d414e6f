package handler

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/shopspring/decimal"
)

func TestFormatDetails(t *testing.T) {
	d := domain.SessionDetails{
		Session:       domain.Session{ID: 1, Name: "my_shop", Currency: domain.CurrencyUSDT, Budget: decimal.NewFromInt(1000), IsActive: true},
		TotalSales:    decimal.NewFromInt(100),
		SalesCount:    1,
		TotalExpenses: decimal.NewFromInt(30),
		OwedToMe:      decimal.Zero,
		IOwe:          decimal.Zero,
		Balance:       decimal.NewFromInt(70),
	}
	text := formatDetails(d)
	for _, want := range []string{"my\\_shop", "100.00 USDT (1 шт.)", "30.00 USDT", "*70.00 USDT*"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestAccessLabel(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		user domain.User
		want string
	}{
		{domain.User{Role: domain.RoleAdmin}, "админ"},
		{domain.User{HasAccess: true}, "бессрочно"},
		{domain.User{HasAccess: true, AccessUntil: &future}, "до"},
		{domain.User{HasAccess: true, AccessUntil: &past}, "истёк"},
		{domain.User{}, "нет доступа"},
	}
	for _, tt := range tests {
		if got := accessLabel(tt.user, now); !strings.Contains(got, tt.want) {
			t.Errorf("accessLabel(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}

func TestErrorTextNeverClaimsSuccess(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("add transaction: %w", domain.ErrSessionClosed), "закрыта"},
		{fmt.Errorf("close session: %w", domain.ErrSessionNotFound), "Сессия не найдена"},
		{domain.ErrOwnerDemotion, "Владельца"},
		{fmt.Errorf("save: %w", domain.ErrRaceLost), "не сохранены"},
		{fmt.Errorf("save: %w", domain.ErrStorageUnavailable), "не сохранены"},
		{errors.New("unexpected"), "не сохранены"},
		{domain.ErrInvalidArgument, "Некорректные данные"},
	}
	for _, tt := range tests {
		got := errorText(tt.err)
		if !strings.Contains(got, tt.want) {
			t.Errorf("errorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
		if strings.HasPrefix(got, "✅") {
			t.Errorf("errorText(%v) reads as success", tt.err)
		}
	}
}
