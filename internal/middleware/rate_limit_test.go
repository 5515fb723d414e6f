package middleware

import (
	"testing"
	"time"
)

func TestLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(func() time.Time { return now })

	for i := 1; i <= 3; i++ {
		if _, ok := l.Allow(1, 3); !ok {
			t.Fatalf("message %d rejected", i)
		}
	}
	if n, ok := l.Allow(1, 3); ok || n != 4 {
		t.Fatalf("4th message = %d, %v", n, ok)
	}
	if _, ok := l.Allow(2, 3); !ok {
		t.Fatal("other chat affected")
	}

	now = now.Add(time.Minute)
	if n, ok := l.Allow(1, 3); !ok || n != 1 {
		t.Fatalf("new window = %d, %v", n, ok)
	}
}
