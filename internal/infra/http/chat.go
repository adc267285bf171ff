package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Spok95/catalog-agent/internal/agent"
	"github.com/Spok95/catalog-agent/internal/dialog"
)

// ChatAgent — то, что нужно веб-чату от агента.
type ChatAgent interface {
	Start(id string) []dialog.Message
	Submit(ctx context.Context, id string, in dialog.Input) ([]dialog.Message, error)
	SetMode(id string, mode agent.Mode) ([]dialog.Message, error)
	Close(id string)
}

const (
	chatWriteWait = 10 * time.Second
	chatPongWait  = 60 * time.Second
	chatPingEvery = (chatPongWait * 9) / 10
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatInbound struct {
	Type  string `json:"type"`
	Input string `json:"input,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

type chatOutbound struct {
	Type     string           `json:"type"`
	Session  string           `json:"session,omitempty"`
	Messages []dialog.Message `json:"messages,omitempty"`
	Code     string           `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// ChatHandler обслуживает веб-чат по websocket. Каждое соединение — свой
// разговор; закрытие сокета его выбрасывает.
type ChatHandler struct {
	agent ChatAgent
	log   *slog.Logger
}

func NewChatHandler(a ChatAgent, log *slog.Logger) *ChatHandler {
	return &ChatHandler{agent: a, log: log}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	sessionID := "web:" + uuid.NewString()
	defer h.agent.Close(sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatPongWait)); err != nil {
		h.log.Warn("chat set read deadline failed", "err", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatPongWait))
	})

	writeCh := make(chan chatOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushChat(writeCh, chatOutbound{Type: "messages", Session: sessionID, Messages: h.agent.Start(sessionID)})

	for {
		var in chatInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}

		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushChat(writeCh, chatOutbound{Type: "pong"})
		case "send":
			go h.submit(ctx, writeCh, sessionID, dialog.TextInput(in.Input))
		case "choose":
			go h.submit(ctx, writeCh, sessionID, dialog.ChoiceInput(in.Input))
		case "reset":
			pushChat(writeCh, chatOutbound{Type: "messages", Messages: h.agent.Start(sessionID)})
		case "mode":
			mode, ok := agent.ParseMode(in.Mode)
			if !ok {
				pushChat(writeCh, chatOutbound{Type: "error", Code: "invalid_argument", Message: "unknown mode: " + in.Mode})
				continue
			}
			msgs, err := h.agent.SetMode(sessionID, mode)
			if err != nil {
				pushChat(writeCh, errorOutbound(err))
				continue
			}
			pushChat(writeCh, chatOutbound{Type: "messages", Messages: msgs})
		case "":
			pushChat(writeCh, chatOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushChat(writeCh, chatOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

// submit выполняется в своей горутине, чтобы чтение сокета не вставало на
// время хода; параллельный ход той же сессии агент отклонит с ErrBusy.
func (h *ChatHandler) submit(ctx context.Context, writeCh chan chatOutbound, sessionID string, in dialog.Input) {
	msgs, err := h.agent.Submit(ctx, sessionID, in)
	if errors.Is(err, agent.ErrRestarted) {
		return
	}
	if err != nil {
		pushChat(writeCh, errorOutbound(err))
		return
	}
	pushChat(writeCh, chatOutbound{Type: "messages", Messages: msgs})
}

func errorOutbound(err error) chatOutbound {
	if errors.Is(err, agent.ErrBusy) {
		return chatOutbound{Type: "busy", Code: "busy", Message: "still working on your previous message"}
	}
	return chatOutbound{Type: "error", Code: "internal", Message: err.Error()}
}

// pushChat не блокирует: при полном буфере выбрасывает самое старое.
func pushChat(writeCh chan chatOutbound, out chatOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
