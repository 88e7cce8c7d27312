package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"doorcheck/entity"
	"doorcheck/lib/logger"
	"doorcheck/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

const maxTelegramMessageLen = 4096

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
		}
	}
}

func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Error("bot command failed",
		slog.String("command", command),
		slog.Int64("user_id", chatId),
		sl.Err(err),
	)
	t.plainResponse(chatId, fmt.Sprintf("Command `%s` failed: %s", logger.Sanitize(command), logger.Sanitize(err.Error())))
}

// formatStats renders the event figures as a MarkdownV2 message.
func formatStats(stats *entity.Stats, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Event* `%s`\n", logger.Sanitize(stats.EventId)))
	sb.WriteString(fmt.Sprintf("Checked in: *%d* of %d\n", stats.CheckedIn, stats.Total))
	sb.WriteString(fmt.Sprintf("Pending: %d\n", stats.Pending))
	sb.WriteString(fmt.Sprintf("Today: %d\n", stats.Today))
	if len(stats.Recent) > 0 {
		sb.WriteString("\n*Recent*\n")
		for _, r := range stats.Recent {
			name := r.HolderName
			if name == "" {
				name = r.TicketCode
			}
			sb.WriteString(logger.Sanitize(fmt.Sprintf("%s %s by %s",
				r.CheckedInAt.In(loc).Format("15:04"), name, r.CheckedInBy)))
			sb.WriteString("\n")
			if sb.Len() > maxTelegramMessageLen-200 {
				sb.WriteString("…\n")
				break
			}
		}
	}
	return sb.String()
}
