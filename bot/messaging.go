package bot

import (
	"log/slog"
)

// SendMessageWithLevel forwards an already escaped message to every admin
// chat when level reaches the bot's threshold.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	if level < t.logLevel() {
		return
	}
	t.notifyAdmins(msg)
}

func (t *TgBot) notifyAdmins(msg string) {
	for _, id := range t.adminIds {
		t.send(id, msg)
	}
}
