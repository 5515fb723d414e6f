package telegram

import (
	"strings"
	"testing"

	"github.com/set-night/ledgerbot/internal/config"
)

func TestTelegramLoggerRoutesToTopics(t *testing.T) {
	cfg := &config.Config{
		LogTelegramChatID: -100500,
		LogTopicAccess:    7,
		LogTopicBroadcast: 9,
	}
	fake := &fakeSender{}
	l := NewTelegramLogger(nil, cfg)

	l.LogAccess(1, 2, "grant")
	if len(fake.sent) != 0 {
		t.Fatal("logger without a sender should drop events")
	}

	l.Attach(fake)
	l.LogAccess(1, 2, "grant 30 days")
	l.LogBroadcast(1, "all", BroadcastResult{Sent: 3, Failed: 1})
	l.LogAdmin(1, "promote 5")

	if len(fake.sent) != 2 {
		t.Fatalf("sent %d messages, want 2 (admin topic is unset)", len(fake.sent))
	}
	if fake.sent[0].MessageThreadID != 7 || fake.sent[1].MessageThreadID != 9 {
		t.Errorf("topics = %d, %d", fake.sent[0].MessageThreadID, fake.sent[1].MessageThreadID)
	}
	if fake.sent[0].ChatID != int64(-100500) {
		t.Errorf("chat = %v", fake.sent[0].ChatID)
	}
	if !strings.Contains(fake.sent[1].Text, "*Sent:* 3") {
		t.Errorf("broadcast log = %q", fake.sent[1].Text)
	}
}

func TestTelegramLoggerNilIsSafe(t *testing.T) {
	var l *TelegramLogger
	l.LogAdmin(1, "noop")
}
