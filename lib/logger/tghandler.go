package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Notifier delivers a formatted alert to staff chats.
type Notifier interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// TelegramHandler is a slog.Handler that also forwards records at or above
// minLevel to a Notifier.
type TelegramHandler struct {
	handler  slog.Handler
	notifier Notifier
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, notifier Notifier, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		notifier: notifier,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
		attrs:    make([]slog.Attr, 0),
	}
}

// Enabled implements slog.Handler.Enabled
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.Handle
func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}
	if record.Level < h.minLevel || h.notifier == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}

	for _, attr := range h.attrs {
		msg += formatAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += formatAttr(attr)
		return true
	})

	h.notifier.SendMessageWithLevel(msg, record.Level)
	return nil
}

// WithAttrs implements slog.Handler.WithAttrs
func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

// WithGroup implements slog.Handler.WithGroup
func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}

func formatAttr(attr slog.Attr) string {
	if attr.Key == "error" {
		return fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
	}
	return Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
}

// Sanitize escapes Telegram MarkdownV2 reserved characters.
func Sanitize(input string) string {
	const reserved = "\\_{}#+-.!|()[]=*>~`"
	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reserved, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
