// Package bot implements the staff Telegram bot.
//
// Only the configured admin chats are served. They receive log records at or
// above the bot's level and can ask for live check-in figures with /stats.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"doorcheck/entity"
	"doorcheck/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// StatsService answers /stats. Implemented by impl/core.
type StatsService interface {
	EventStats(ctx context.Context, op *entity.Operator, eventId string) (*entity.Stats, error)
}

// botOperator identifies the bot when it reads check-in figures.
var botOperator = entity.Operator{Id: "telegram-bot", Name: "Telegram bot", Role: entity.RoleAdmin}

type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	send        func(chatId int64, text string)
	stats       StatsService
	operator    *entity.Operator
	adminIds    []int64
	mu          sync.RWMutex // guards minLogLevel
	minLogLevel slog.Level
	location    *time.Location
	updater     *ext.Updater
}

func NewTgBot(apiKey string, adminIds []int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminIds:    slices.Clone(adminIds),
		minLogLevel: slog.LevelWarn,
		location:    time.UTC,
	}
	tgBot.send = tgBot.plainResponse
	op := botOperator
	tgBot.operator = &op

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) SetStatsService(stats StatsService) {
	t.stats = stats
}

// SetLocation sets the zone used to print check-in times.
func (t *TgBot) SetLocation(loc *time.Location) {
	if loc != nil {
		t.location = loc
	}
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("stats", t.statsCmd))
	dispatcher.AddHandler(handlers.NewCommand("level", t.level))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	t.setCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.With(slog.Int("admins", len(t.adminIds))).Info("telegram bot started")
	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

func (t *TgBot) isAdmin(chatId int64) bool {
	return slices.Contains(t.adminIds, chatId)
}

// SetLogLevel sets the lowest level forwarded to admin chats.
func (t *TgBot) SetLogLevel(level slog.Level) {
	t.mu.Lock()
	t.minLogLevel = level
	t.mu.Unlock()
}

func (t *TgBot) logLevel() slog.Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minLogLevel
}
