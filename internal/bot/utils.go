package bot

import (
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/catalog-agent/internal/agent"
	"github.com/Spok95/catalog-agent/internal/dialog"
)

/*** HELPERS ***/

func sessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) error {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	_, err := b.api.Request(resp)
	return err
}

// clearMarkup убрать inline-кнопки у сообщения, текст оставляем как есть
func (b *Bot) clearMarkup(chatID int64, messageID int) {
	rm := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if _, err := b.api.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, rm)); err != nil {
		b.log.Debug("clear markup failed", "err", err)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) sendAll(chatID int64, msgs []dialog.Message) {
	for _, m := range msgs {
		b.send(render(chatID, m))
	}
}

func (b *Bot) sendError(chatID int64, err error) {
	if errors.Is(err, agent.ErrRestarted) {
		// разговор начали заново, ответ старого хода не нужен
		return
	}
	if errors.Is(err, agent.ErrBusy) {
		b.send(tgbotapi.NewMessage(chatID, "⏳ Still working on your previous message, please wait."))
		return
	}
	b.log.Error("turn failed", "chat_id", chatID, "err", err)
	b.send(tgbotapi.NewMessage(chatID, "⚠️ Error: "+err.Error()))
}
