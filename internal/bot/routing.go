package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/catalog-agent/internal/agent"
	"github.com/Spok95/catalog-agent/internal/export"
	"github.com/Spok95/catalog-agent/internal/gateway"
)

const helpText = `Commands:
/start — start a new conversation
/reset — discard the current conversation
/mode structured|free — switch between the catalog assistant and free-form chat
/export specification|offering — download the list as Excel
/help — this help`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "reset":
		b.sendAll(chatID, b.agent.Start(sessionID(chatID)))

	case "help":
		b.send(tgbotapi.NewMessage(chatID, helpText))

	case "mode":
		mode, ok := agent.ParseMode(args)
		if !ok {
			b.send(tgbotapi.NewMessage(chatID, "Usage: /mode structured|free"))
			return
		}
		msgs, err := b.agent.SetMode(sessionID(chatID), mode)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendAll(chatID, msgs)

	case "export":
		kind, ok := gateway.ParseKind(strings.ToLower(args))
		if !ok {
			b.send(tgbotapi.NewMessage(chatID, "Usage: /export specification|offering"))
			return
		}
		b.exportKind(ctx, chatID, kind)

	case "stats":
		if chatID != b.adminChat || b.ratings == nil {
			b.send(tgbotapi.NewMessage(chatID, "Access denied."))
			return
		}
		b.sendStats(ctx, chatID)

	default:
		b.send(tgbotapi.NewMessage(chatID, "Unknown command. Type /help"))
	}
}

func (b *Bot) exportKind(ctx context.Context, chatID int64, kind gateway.Kind) {
	recs, err := b.lister.List(ctx, kind)
	if err != nil {
		b.log.Error("export list failed", "kind", kind, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "⚠️ Error: failed to load the list."))
		return
	}
	data, err := export.Workbook(kind, recs)
	if err != nil {
		b.log.Error("export build failed", "kind", kind, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "⚠️ Error: failed to build the file."))
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: export.FileName(kind), Bytes: data})
	doc.Caption = fmt.Sprintf("%d record(s)", len(recs))
	b.send(doc)
}

func (b *Bot) sendStats(ctx context.Context, chatID int64) {
	sums, err := b.ratings.Summaries(ctx)
	if err != nil {
		b.log.Error("rating summaries failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "⚠️ Error: failed to load ratings."))
		return
	}
	if len(sums) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "No ratings yet."))
		return
	}
	var sb strings.Builder
	sb.WriteString("Satisfaction ratings:\n")
	for _, s := range sums {
		fmt.Fprintf(&sb, "%s: %d rating(s), average %.2f\n", s.Channel, s.Count, s.Average)
	}
	b.send(tgbotapi.NewMessage(chatID, strings.TrimRight(sb.String(), "\n")))
}
