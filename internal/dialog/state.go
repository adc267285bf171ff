package dialog

import (
	"maps"
	"slices"
	"strings"

	"github.com/Spok95/catalog-agent/internal/gateway"
)

type Stage string

const (
	StageInitial                  Stage = "initial"
	StageCategorySelection        Stage = "category_selection"
	StageActionSelection          Stage = "action_selection"
	StageCollectingSpecFields     Stage = "collecting_spec_fields"
	StageCollectingOfferingRef    Stage = "collecting_offering_ref"
	StageCollectingOfferingFields Stage = "collecting_offering_fields"
	StageItemSelection            Stage = "item_selection"
	StageUpdateSpecFields         Stage = "update_spec_fields"
	StageUpdateOfferingFields     Stage = "update_offering_fields"
)

type Category string

const (
	CategorySpecification Category = "specification"
	CategoryOffering      Category = "offering"
	CategoryIssue         Category = "issue"
)

// Kind — вид ресурса для категории; у issue ресурса нет.
func (c Category) Kind() (gateway.Kind, bool) {
	switch c {
	case CategorySpecification:
		return gateway.KindSpecification, true
	case CategoryOffering:
		return gateway.KindOffering, true
	}
	return "", false
}

func categoryOf(k gateway.Kind) Category {
	if k == gateway.KindOffering {
		return CategoryOffering
	}
	return CategorySpecification
}

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionView   Action = "view"
)

// State — вариант состояния диалога. Каждый вариант несёт только то, что нужно
// его этапу; на каждом ходе возвращается новое значение.
type State interface {
	Stage() Stage
	isState()
}

type Initial struct{}

type CategorySelection struct{}

type ActionSelection struct {
	Category Category
}

// Form копит значения для создания. В Collected могут быть ключи вне Required
// (ссылка предложения на спецификацию).
type Form struct {
	Required  []string
	Collected map[string]string
}

// CurrentField — первое обязательное поле без значения.
func (f Form) CurrentField() (string, bool) {
	for _, name := range f.Required {
		if _, ok := f.Collected[name]; !ok {
			return name, true
		}
	}
	return "", false
}

func (f Form) with(field, value string) Form {
	next := Form{Required: f.Required, Collected: maps.Clone(f.Collected)}
	if next.Collected == nil {
		next.Collected = map[string]string{}
	}
	next.Collected[field] = value
	return next
}

type CollectingFields struct {
	Kind gateway.Kind
	Form Form
}

// CollectingOfferingRef хранит показанный список спецификаций, чтобы
// повторить его без нового запроса.
type CollectingOfferingRef struct {
	Items []Item
}

type ItemSelection struct {
	Category Category
	Action   Action
	Items    []Item
}

// offered: id пришёл кликом по одному из показанных пунктов.
func offered(items []Item, in Input) (string, bool) {
	if !in.Choice {
		return "", false
	}
	id := strings.TrimSpace(in.Value)
	for _, it := range items {
		if it.ID == id {
			return id, true
		}
	}
	return "", false
}

// UpdatingFields собирает изменения для одной записи.
// Fields — выбранные поля в порядке выбора, Values — уже введённые значения.
type UpdatingFields struct {
	Kind    gateway.Kind
	Item    string
	Fields  []string
	Current string
	Values  map[string]string
}

// Remaining — выбранные поля, для которых ещё нет значения.
func (u UpdatingFields) Remaining() []string {
	var out []string
	for _, f := range u.Fields {
		if _, ok := u.Values[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func (u UpdatingFields) selected(field string) bool {
	return slices.Contains(u.Fields, field)
}

func (u UpdatingFields) clone() UpdatingFields {
	u.Fields = slices.Clone(u.Fields)
	u.Values = maps.Clone(u.Values)
	if u.Values == nil {
		u.Values = map[string]string{}
	}
	return u
}

func (Initial) Stage() Stage               { return StageInitial }
func (CategorySelection) Stage() Stage     { return StageCategorySelection }
func (ActionSelection) Stage() Stage       { return StageActionSelection }
func (CollectingOfferingRef) Stage() Stage { return StageCollectingOfferingRef }
func (ItemSelection) Stage() Stage         { return StageItemSelection }

func (s CollectingFields) Stage() Stage {
	if s.Kind == gateway.KindOffering {
		return StageCollectingOfferingFields
	}
	return StageCollectingSpecFields
}

func (s UpdatingFields) Stage() Stage {
	if s.Kind == gateway.KindOffering {
		return StageUpdateOfferingFields
	}
	return StageUpdateSpecFields
}

func (Initial) isState()               {}
func (CategorySelection) isState()     {}
func (ActionSelection) isState()       {}
func (CollectingFields) isState()      {}
func (CollectingOfferingRef) isState() {}
func (ItemSelection) isState()         {}
func (UpdatingFields) isState()        {}
