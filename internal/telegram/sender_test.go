package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []*bot.SendMessageParams
	failFor  map[int64]bool
	rejectMD bool
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[p.ChatID.(int64)] {
		return nil, errors.New("bot was blocked by the user")
	}
	if f.rejectMD && p.ParseMode != "" {
		return nil, errors.New("can't parse entities")
	}
	cp := *p
	f.sent = append(f.sent, &cp)
	return &models.Message{}, nil
}

func TestBroadcastCountsFailures(t *testing.T) {
	f := &fakeSender{failFor: map[int64]bool{2: true}}
	res, err := Broadcast(context.Background(), f, []int64{1, 2, 3}, "hi", time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sent != 2 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestBroadcastStopsOnCancel(t *testing.T) {
	f := &fakeSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Broadcast(ctx, f, []int64{1, 2}, "hi", 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if res.Sent != 0 {
		t.Fatalf("sent after cancel: %+v", res)
	}
}

func TestSendLongMessageFallsBackToPlainText(t *testing.T) {
	f := &fakeSender{rejectMD: true}
	text := strings.Repeat("a", MaxMessageLen+10)
	kb := InlineKeyboard(ButtonRow(InlineButton("x", "y")))

	if err := SendLongMessage(context.Background(), f, 5, text, kb); err != nil {
		t.Fatal(err)
	}
	if len(f.sent) != 2 {
		t.Fatalf("parts sent = %d", len(f.sent))
	}
	if f.sent[0].ReplyMarkup != nil || f.sent[1].ReplyMarkup == nil {
		t.Fatal("keyboard must be attached to the last part only")
	}
	if f.sent[0].ParseMode != "" {
		t.Fatal("fallback kept parse mode")
	}
}
