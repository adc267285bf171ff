package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Spok95/catalog-agent/internal/gateway"
)

// Gateway — часть REST API каталога, нужная диалогу.
type Gateway interface {
	List(ctx context.Context, kind gateway.Kind) ([]gateway.Record, error)
	Get(ctx context.Context, kind gateway.Kind, id string) (gateway.Record, error)
	Create(ctx context.Context, kind gateway.Kind, fields map[string]any) (gateway.Record, error)
	Update(ctx context.Context, kind gateway.Kind, id string, fields map[string]any) (gateway.Record, error)
	Delete(ctx context.Context, kind gateway.Kind, id string) error
}

// Processor считает следующее состояние диалога по текущему и одному вводу.
// Переданное состояние не меняет. Если запрос к шлюзу упал, возвращается
// исходное состояние: повторная отправка повторяет запрос.
type Processor struct {
	gw  Gateway
	log *slog.Logger
}

func NewProcessor(gw Gateway, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{gw: gw, log: log}
}

// Start открывает разговор; в структурном режиме сразу показывает меню категорий.
func (p *Processor) Start(structured bool) (State, []Message) {
	if !structured {
		return Initial{}, nil
	}
	return CategorySelection{}, []Message{
		Text("Hi! I'm the catalog assistant. I can create, view, update or delete product specifications and offerings."),
		categoryMenu(),
	}
}

func (p *Processor) Turn(ctx context.Context, st State, in Input) (State, []Message) {
	switch s := st.(type) {
	case Initial:
		return p.reset()
	case CategorySelection:
		return p.selectCategory(s, in)
	case ActionSelection:
		return p.selectAction(ctx, s, in)
	case CollectingFields:
		return p.collectField(ctx, s, in)
	case CollectingOfferingRef:
		return p.selectOfferingRef(ctx, s, in)
	case ItemSelection:
		return p.selectItem(ctx, s, in)
	case UpdatingFields:
		return p.collectUpdate(ctx, s, in)
	default:
		return p.reset()
	}
}

func (p *Processor) reset() (State, []Message) {
	return CategorySelection{}, []Message{categoryMenu()}
}

func (p *Processor) fail(st State, kind gateway.Kind, op string, err error) (State, []Message) {
	p.log.Warn("gateway call failed", "stage", st.Stage(), "kind", kind, "op", op, "err", err)
	return st, []Message{Error(err)}
}

func (p *Processor) selectCategory(s CategorySelection, in Input) (State, []Message) {
	switch c := Category(in.keyword()); c {
	case CategorySpecification, CategoryOffering, CategoryIssue:
		return ActionSelection{Category: c}, []Message{actionMenu(c)}
	}
	return s, []Message{categoryMenu()}
}

func (p *Processor) selectAction(ctx context.Context, s ActionSelection, in Input) (State, []Message) {
	act := Action(in.keyword())
	switch act {
	case ActionCreate, ActionUpdate, ActionDelete, ActionView:
	default:
		return s, []Message{actionMenu(s.Category)}
	}

	kind, ok := s.Category.Kind()
	if !ok {
		// issue: обращения агент не ведёт
		return Initial{}, []Message{
			Text("Issue reports aren't handled by the assistant. Please contact support; I can still help you with product specifications and offerings."),
		}
	}

	switch {
	case kind == gateway.KindSpecification && act == ActionCreate:
		return p.beginForm(gateway.KindSpecification, nil,
			Text("Let's create a new product specification."))

	case kind == gateway.KindOffering && act == ActionCreate:
		specs, err := p.gw.List(ctx, gateway.KindSpecification)
		if err != nil {
			return p.fail(s, gateway.KindSpecification, "list", err)
		}
		if len(specs) == 0 {
			return ActionSelection{Category: CategorySpecification}, []Message{
				Options("There are no product specifications yet. An offering must reference one, so please create a specification first.",
					Option{Label: "Create a specification", Value: string(ActionCreate)}),
			}
		}
		items := itemsOf(gateway.KindSpecification, specs)
		return CollectingOfferingRef{Items: items}, []Message{itemList(gateway.KindSpecification, offeringRefVerb, items)}

	default:
		recs, err := p.gw.List(ctx, kind)
		if err != nil {
			return p.fail(s, kind, "list", err)
		}
		if len(recs) == 0 {
			return s, []Message{
				Options(fmt.Sprintf("No %ss found. Would you like to create one?", kindLabel(kind)),
					Option{Label: "Create one", Value: string(ActionCreate)}),
			}
		}
		items := itemsOf(kind, recs)
		return ItemSelection{Category: s.Category, Action: act, Items: items}, []Message{itemList(kind, string(act), items)}
	}
}

func (p *Processor) beginForm(kind gateway.Kind, seed map[string]string, intro Message) (State, []Message) {
	if seed == nil {
		seed = map[string]string{}
	}
	next := CollectingFields{Kind: kind, Form: Form{Required: RequiredFields(kind), Collected: seed}}
	first, _ := next.Form.CurrentField()
	return next, []Message{intro, fieldPrompt(kind, first)}
}

func (p *Processor) collectField(ctx context.Context, s CollectingFields, in Input) (State, []Message) {
	field, ok := s.Form.CurrentField()
	if !ok {
		// все поля уже собраны, предыдущий create упал: повторяем
		return p.submitCreate(ctx, s)
	}

	if in.Choice {
		// клик по старой клавиатуре значением поля не считается
		return s, []Message{Text(fmt.Sprintf("Please type the %s.", DisplayName(field))), fieldPrompt(s.Kind, field)}
	}

	f, _ := lookupField(s.Kind, field)
	v, hint := normalize(f, in.Value)
	if hint != "" {
		return s, []Message{Text(hint), fieldPrompt(s.Kind, field)}
	}

	next := CollectingFields{Kind: s.Kind, Form: s.Form.with(field, v)}
	if nf, ok := next.Form.CurrentField(); ok {
		return next, []Message{fieldPrompt(s.Kind, nf)}
	}
	return p.submitCreate(ctx, next)
}

func (p *Processor) submitCreate(ctx context.Context, s CollectingFields) (State, []Message) {
	rec, err := p.gw.Create(ctx, s.Kind, body(s.Kind, s.Form.Collected))
	if err != nil {
		return p.fail(s, s.Kind, "create", err)
	}
	name := rec.Name()
	if name == "" {
		name = s.Form.Collected[gateway.FieldName]
	}
	return Initial{}, []Message{
		Text(fmt.Sprintf("The %s %q was created successfully.", kindLabel(s.Kind), name)),
		ratingMenu(),
	}
}

const offeringRefVerb = "base the offering on"

func (p *Processor) selectOfferingRef(ctx context.Context, s CollectingOfferingRef, in Input) (State, []Message) {
	id, ok := offered(s.Items, in)
	if !ok {
		return s, pickAgain(gateway.KindSpecification, offeringRefVerb, s.Items)
	}
	spec, err := p.gw.Get(ctx, gateway.KindSpecification, id)
	if err != nil {
		return p.fail(s, gateway.KindSpecification, "get", err)
	}
	if specID := spec.ID(); specID != "" {
		id = specID
	}
	seed := map[string]string{
		FieldSpecRef:     id,
		FieldSpecRefName: spec.Name(),
	}
	return p.beginForm(gateway.KindOffering, seed,
		Text(fmt.Sprintf("Creating a product offering for %q.", spec.Name())))
}

func (p *Processor) selectItem(ctx context.Context, s ItemSelection, in Input) (State, []Message) {
	kind, ok := s.Category.Kind()
	if !ok {
		return p.reset()
	}
	id, ok := offered(s.Items, in)
	if !ok {
		return s, pickAgain(kind, string(s.Action), s.Items)
	}

	switch s.Action {
	case ActionView:
		rec, err := p.gw.Get(ctx, kind, id)
		if err != nil {
			return p.fail(s, kind, "get", err)
		}
		return Initial{}, []Message{Text(fmt.Sprintf("Here are the details of the %s:\n%s", kindLabel(kind), FormatRecord(rec)))}

	case ActionDelete:
		if err := p.gw.Delete(ctx, kind, id); err != nil {
			return p.fail(s, kind, "delete", err)
		}
		return Initial{}, []Message{Text(fmt.Sprintf("The %s was deleted.", kindLabel(kind)))}

	case ActionUpdate:
		next := UpdatingFields{Kind: kind, Item: id, Values: map[string]string{}}
		return next, []Message{updateFieldMenu(next, "Which field would you like to change?")}
	}
	return p.reset()
}

// collectUpdate: выбор поля приходит только кликом (Choice), любой
// набранный текст — значение для текущего поля.
func (p *Processor) collectUpdate(ctx context.Context, s UpdatingFields, in Input) (State, []Message) {
	if len(s.Fields) > 0 && len(s.Remaining()) == 0 {
		// значения уже собраны, предыдущий PUT упал: повторяем
		return p.submitUpdate(ctx, s)
	}

	if in.Choice {
		field := strings.TrimSpace(in.Value)
		if _, ok := lookupField(s.Kind, field); !ok {
			return s, p.updatePrompt(s)
		}
		if s.selected(field) {
			return s, append([]Message{Text(fmt.Sprintf("The %s is already selected.", DisplayName(field)))}, p.updatePrompt(s)...)
		}
		next := s.clone()
		next.Fields = append(next.Fields, field)
		next.Current = field
		return next, p.updatePrompt(next)
	}

	if s.Current == "" {
		return s, []Message{updateFieldMenu(s, "Please select a field to update first:")}
	}

	f, _ := lookupField(s.Kind, s.Current)
	v, hint := normalize(f, in.Value)
	if hint != "" {
		return s, []Message{Text(hint), fieldPrompt(s.Kind, s.Current)}
	}

	next := s.clone()
	next.Values[s.Current] = v
	if rem := next.Remaining(); len(rem) > 0 {
		next.Current = rem[0]
		return next, []Message{fieldPrompt(s.Kind, next.Current)}
	}
	next.Current = ""
	return p.submitUpdate(ctx, next)
}

func (p *Processor) updatePrompt(s UpdatingFields) []Message {
	if s.Current == "" {
		return []Message{updateFieldMenu(s, "Which field would you like to change?")}
	}
	out := []Message{fieldPrompt(s.Kind, s.Current)}
	if menu := updateFieldMenu(s, "Or pick another field to change as well:"); len(menu.Options) > 0 {
		out = append(out, menu)
	}
	return out
}

func (p *Processor) submitUpdate(ctx context.Context, s UpdatingFields) (State, []Message) {
	rec, err := p.gw.Update(ctx, s.Kind, s.Item, body(s.Kind, s.Values))
	if err != nil {
		return p.fail(s, s.Kind, "update", err)
	}
	name := rec.Name()
	if name == "" {
		name = s.Values[gateway.FieldName]
	}
	if name == "" {
		name = s.Item
	}
	return Initial{}, []Message{Text(fmt.Sprintf("The %s %q was updated successfully.", kindLabel(s.Kind), name))}
}
