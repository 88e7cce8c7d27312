package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"doorcheck/lib/sl"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) SendMessageWithLevel(msg string, _ slog.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestTelegramHandlerForwardsAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	rec := &recorder{}
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(NewTelegramHandler(base, rec, slog.LevelError)).With(sl.Module("test"))

	log.Info("checked in", slog.String("ticket", "MAIN-ABCDE-1234"))
	log.Error("commit failed", sl.Err(errors.New("connection reset")))

	if !strings.Contains(buf.String(), "checked in") || !strings.Contains(buf.String(), "commit failed") {
		t.Errorf("base handler output missing records: %q", buf.String())
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("forwarded %d messages, want 1", len(rec.msgs))
	}
	msg := rec.msgs[0]
	if !strings.Contains(msg, "commit failed") {
		t.Errorf("message = %q, want it to contain the record message", msg)
	}
	if !strings.Contains(msg, "connection reset") {
		t.Errorf("message = %q, want it to contain the error", msg)
	}
	if !strings.Contains(msg, "mod: test") {
		t.Errorf("message = %q, want it to contain the module attr", msg)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize("MAIN-ABCDE-1234 (door 1).")
	want := `MAIN\-ABCDE\-1234 \(door 1\)\.`
	if got != want {
		t.Errorf("Sanitize() = %q, want %q", got, want)
	}
}
