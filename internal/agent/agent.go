package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/Spok95/catalog-agent/internal/dialog"
	"github.com/Spok95/catalog-agent/internal/domain/feedback"
	"github.com/Spok95/catalog-agent/internal/infra/metrics"
)

type Mode string

const (
	ModeStructured Mode = "structured"
	ModeFree       Mode = "free"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStructured:
		return ModeStructured, true
	case ModeFree:
		return ModeFree, true
	}
	return "", false
}

// ErrBusy — ввод пришёл, пока предыдущий ход той же сессии ещё идёт.
var ErrBusy = errors.New("agent: session is busy")

// ErrRestarted возвращается вместо ответа хода, если сессию начали заново
// или закрыли, пока ход шёл; такой ответ отбрасывается.
var ErrRestarted = errors.New("agent: session restarted")

// Assistant отвечает на свободный текст.
type Assistant interface {
	Reply(ctx context.Context, text string) (string, error)
}

type Ratings interface {
	Add(ctx context.Context, r feedback.Rating) (*feedback.Rating, error)
}

type session struct {
	mu    sync.Mutex // держится на время хода
	state dialog.State
	mode  Mode
}

// Agent держит разговоры в памяти, ходы одного разговора идут по очереди.
// id сессии: "<канал>:<id>", например "tg:42" или "web:<uuid>".
type Agent struct {
	proc       *dialog.Processor
	assistant  Assistant
	ratings    Ratings
	log        *slog.Logger
	structured bool

	mu       sync.Mutex
	sessions map[string]*session
}

// New собирает агента. assistant и ratings могут быть nil: тогда свободный
// режим отвечает ошибкой, а оценки только пишутся в лог.
func New(proc *dialog.Processor, assistant Assistant, ratings Ratings, log *slog.Logger, startStructured bool) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		proc:       proc,
		assistant:  assistant,
		ratings:    ratings,
		log:        log,
		structured: startStructured,
		sessions:   map[string]*session{},
	}
}

func (a *Agent) session(id string) *session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[id]
	if !ok {
		st, _ := a.proc.Start(a.structured)
		s = &session{state: st, mode: ModeStructured}
		a.sessions[id] = s
	}
	return s
}

// Start начинает разговор заново и возвращает приветствие.
func (a *Agent) Start(id string) []dialog.Message {
	st, msgs := a.proc.Start(a.structured)
	a.mu.Lock()
	a.sessions[id] = &session{state: st, mode: ModeStructured}
	a.mu.Unlock()
	if len(msgs) == 0 {
		msgs = []dialog.Message{dialog.Text("Hi! Send any message to begin.")}
	}
	return msgs
}

// Close выбрасывает разговор.
func (a *Agent) Close(id string) {
	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()
}

// Stage — этап разговора; у неизвестной сессии это initial.
func (a *Agent) Stage(id string) dialog.Stage {
	a.mu.Lock()
	s, ok := a.sessions[id]
	a.mu.Unlock()
	if !ok {
		return dialog.StageInitial
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return stageOf(s.state)
}

func (a *Agent) SetMode(id string, mode Mode) ([]dialog.Message, error) {
	s := a.session(id)
	if !s.mu.TryLock() {
		metrics.BusyRejections.Inc()
		return nil, ErrBusy
	}
	defer s.mu.Unlock()
	s.mode = mode
	if mode == ModeFree {
		return []dialog.Message{dialog.Text("Free-form mode: ask me anything. Use structured mode to manage the catalog.")}, nil
	}
	return []dialog.Message{dialog.Text("Back to structured mode. Send any message to continue.")}, nil
}

// Submit выполняет один ход сессии.
func (a *Agent) Submit(ctx context.Context, id string, in dialog.Input) ([]dialog.Message, error) {
	s := a.session(id)
	if !s.mu.TryLock() {
		metrics.BusyRejections.Inc()
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	msgs := a.turn(ctx, id, s, in)
	if !a.current(id, s) {
		a.log.Debug("reply dropped, session restarted", "session", id)
		return nil, ErrRestarted
	}
	return msgs, nil
}

func (a *Agent) turn(ctx context.Context, id string, s *session, in dialog.Input) []dialog.Message {
	if in.Choice && strings.HasPrefix(in.Value, dialog.RatingPrefix) {
		return a.rate(ctx, id, strings.TrimPrefix(in.Value, dialog.RatingPrefix))
	}

	if s.mode == ModeFree {
		return a.freeForm(ctx, id, in.Value)
	}

	from := stageOf(s.state)
	next, msgs := a.proc.Turn(ctx, s.state, in)
	s.state = next
	metrics.ObserveTurn(string(from), hasError(msgs))
	a.log.Debug("turn", "session", id, "from", from, "to", next.Stage())
	return msgs
}

// current: s всё ещё та сессия, что лежит под id (Start и Close её заменяют).
func (a *Agent) current(id string, s *session) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions[id] == s
}

func (a *Agent) rate(ctx context.Context, id, raw string) []dialog.Message {
	score, err := strconv.Atoi(raw)
	if err != nil || score < 1 || score > 5 {
		return []dialog.Message{dialog.Text("Please pick a rating from 1 to 5.")}
	}
	metrics.Ratings.WithLabelValues(raw).Inc()
	if a.ratings != nil {
		r := feedback.Rating{SessionID: id, Channel: channelOf(id), Score: score}
		if _, err := a.ratings.Add(ctx, r); err != nil {
			a.log.Error("save rating failed", "session", id, "err", err)
		}
	}
	return []dialog.Message{dialog.Text("Thanks for your feedback!")}
}

func (a *Agent) freeForm(ctx context.Context, id, text string) []dialog.Message {
	if a.assistant == nil {
		return []dialog.Message{dialog.Error(errors.New("free-form assistant is not configured"))}
	}
	reply, err := a.assistant.Reply(ctx, text)
	if err != nil {
		a.log.Warn("assistant reply failed", "session", id, "err", err)
		return []dialog.Message{dialog.Error(fmt.Errorf("assistant: %w", err))}
	}
	return []dialog.Message{dialog.Text(reply)}
}

func stageOf(st dialog.State) dialog.Stage {
	if st == nil {
		return dialog.StageInitial
	}
	return st.Stage()
}

func channelOf(id string) string {
	if ch, _, ok := strings.Cut(id, ":"); ok {
		return ch
	}
	return "unknown"
}

func hasError(msgs []dialog.Message) bool {
	for _, m := range msgs {
		if m.Kind == dialog.MessageError {
			return true
		}
	}
	return false
}
