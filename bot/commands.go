package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"doorcheck/lib/logger"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

var commands = []tgbotapi.BotCommand{
	{Command: "stats", Description: "Check-in figures for an event"},
	{Command: "level", Description: "Set log level filter"},
	{Command: "help", Description: "Show available commands"},
}

func (t *TgBot) setCommands() {
	_, err := t.api.SetMyCommands(commands, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) {
		t.log.With(slog.Int64("id", chatId), slog.String("username", ctx.EffectiveUser.Username)).Warn("unknown chat")
		t.plainResponse(chatId, fmt.Sprintf("This bot serves event staff only\\. Your chat id is `%d`\\.", chatId))
		return nil
	}
	t.plainResponse(chatId, "Alerts are enabled for this chat\\. Use `/help` for commands\\.")
	return nil
}

func (t *TgBot) statsCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) {
		return nil
	}
	if t.stats == nil {
		t.plainResponse(chatId, "Stats are not available\\.")
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, "Usage: `/stats <event id>`")
		return nil
	}

	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stats, err := t.stats.EventStats(c, t.operator, args[1])
	if err != nil {
		t.reportError(chatId, "/stats", err)
		return nil
	}
	t.plainResponse(chatId, formatStats(stats, t.location))
	return nil
}

func (t *TgBot) level(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) {
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, fmt.Sprintf("Current log level: %s\nAvailable levels: debug, info, warn, error",
			logger.Sanitize(t.logLevel().String())))
		return nil
	}

	level, ok := parseLevel(args[1])
	if !ok {
		t.plainResponse(chatId, fmt.Sprintf("Invalid level: %s\nAvailable levels: debug, info, warn, error", logger.Sanitize(args[1])))
		return nil
	}
	t.SetLogLevel(level)

	t.plainResponse(chatId, fmt.Sprintf("Log level set to: %s", logger.Sanitize(level.String())))
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("*Available Commands*\n\n")
	sb.WriteString("`/stats <event id>` \\- Check\\-in figures and recent arrivals\n")
	sb.WriteString("`/level <debug|info|warn|error>` \\- Set alert level\n")
	sb.WriteString("`/help` \\- Show this help\n")

	t.plainResponse(chatId, sb.String())
	return nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
