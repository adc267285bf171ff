package bot

import (
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/catalog-agent/internal/dialog"
)

const (
	cancelData = "nav:cancel"
	// лимит Telegram на callback_data
	maxCallbackData = 64
	maxButtonLabel  = 48
)

func navRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", cancelData),
	)
}

// optionsKeyboard раскладывает варианты по два в ряд.
func optionsKeyboard(opts []dialog.Option) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	var row []tgbotapi.InlineKeyboardButton
	for _, o := range opts {
		if len(o.Value) > maxCallbackData {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(truncate(o.Label, maxButtonLabel), o.Value))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, navRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// itemsKeyboard — по кнопке на запись, id уходит в callback_data.
func itemsKeyboard(items []dialog.Item) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, it := range items {
		if it.ID == "" || len(it.ID) > maxCallbackData {
			continue
		}
		label := it.Name
		if label == "" {
			label = it.ID
		}
		if it.Description != "" {
			label += " — " + it.Description
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(label, maxButtonLabel), it.ID),
		))
	}
	rows = append(rows, navRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// render переводит реплику агента в сообщение Telegram.
func render(chatID int64, m dialog.Message) tgbotapi.MessageConfig {
	out := tgbotapi.NewMessage(chatID, m.Text)
	switch m.Kind {
	case dialog.MessageOptions:
		if len(m.Options) > 0 {
			out.ReplyMarkup = optionsKeyboard(m.Options)
		}
	case dialog.MessageItems:
		out.ReplyMarkup = itemsKeyboard(m.Items)
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
