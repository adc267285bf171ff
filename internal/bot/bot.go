package bot

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/catalog-agent/internal/agent"
	"github.com/Spok95/catalog-agent/internal/dialog"
	"github.com/Spok95/catalog-agent/internal/domain/feedback"
	"github.com/Spok95/catalog-agent/internal/gateway"
)

// api — часть tgbotapi.BotAPI, которой пользуется бот.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Agent interface {
	Start(id string) []dialog.Message
	Submit(ctx context.Context, id string, in dialog.Input) ([]dialog.Message, error)
	SetMode(id string, mode agent.Mode) ([]dialog.Message, error)
}

type Lister interface {
	List(ctx context.Context, kind gateway.Kind) ([]gateway.Record, error)
}

type RatingSummaries interface {
	Summaries(ctx context.Context) ([]feedback.Summary, error)
}

type Bot struct {
	api       api
	log       *slog.Logger
	agent     Agent
	lister    Lister
	ratings   RatingSummaries
	adminChat int64

	wg sync.WaitGroup
}

// New собирает бота. ratings может быть nil — тогда /stats недоступна.
func New(a api, log *slog.Logger, ag Agent, lister Lister, ratings RatingSummaries, adminChatID int64) *Bot {
	return &Bot{
		api: a, log: log, agent: ag, lister: lister,
		ratings: ratings, adminChat: adminChatID,
	}
}

// Run читает апдейты до отмены ctx. Каждый апдейт — в своей горутине;
// ходы одного чата упорядочивает агент, на наложение отвечает ErrBusy.
func (b *Bot) Run(ctx context.Context, botAPI *tgbotapi.BotAPI, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := botAPI.GetUpdatesChan(u)
	defer func() {
		botAPI.StopReceivingUpdates()
		b.wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		b.onMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		b.onCallback(ctx, upd.CallbackQuery)
	}
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Text == "" {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "I can only read text messages."))
		return
	}
	b.submit(ctx, msg.Chat.ID, dialog.TextInput(msg.Text))
}

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		_ = b.answerCallback(cb, "", false)
		return
	}
	chatID := cb.Message.Chat.ID

	// кнопки прошлого шага больше не нужны
	b.clearMarkup(chatID, cb.Message.MessageID)

	if cb.Data == cancelData {
		_ = b.answerCallback(cb, "Cancelled", false)
		b.sendAll(chatID, b.agent.Start(sessionID(chatID)))
		return
	}
	_ = b.answerCallback(cb, "", false)
	b.submit(ctx, chatID, dialog.ChoiceInput(cb.Data))
}

func (b *Bot) submit(ctx context.Context, chatID int64, in dialog.Input) {
	msgs, err := b.agent.Submit(ctx, sessionID(chatID), in)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendAll(chatID, msgs)
}
