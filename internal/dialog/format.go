package dialog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Spok95/catalog-agent/internal/gateway"
)

// RatingPrefix — префикс значений кнопок оценки ("rate:1" .. "rate:5").
const RatingPrefix = "rate:"

func categoryMenu() Message {
	return Options("What would you like to work with?",
		Option{Label: "Product specification", Value: string(CategorySpecification)},
		Option{Label: "Product offering", Value: string(CategoryOffering)},
		Option{Label: "Report an issue", Value: string(CategoryIssue)},
	)
}

func actionMenu(c Category) Message {
	return Options(fmt.Sprintf("What would you like to do with %ss?", categoryLabel(c)),
		Option{Label: "Create", Value: string(ActionCreate)},
		Option{Label: "View", Value: string(ActionView)},
		Option{Label: "Update", Value: string(ActionUpdate)},
		Option{Label: "Delete", Value: string(ActionDelete)},
	)
}

func categoryLabel(c Category) string {
	switch c {
	case CategorySpecification:
		return "product specification"
	case CategoryOffering:
		return "product offering"
	}
	return string(c)
}

func kindLabel(k gateway.Kind) string { return categoryLabel(categoryOf(k)) }

func fieldPrompt(kind gateway.Kind, field string) Message {
	text := fmt.Sprintf("Please enter the %s", DisplayName(field))
	if f, ok := lookupField(kind, field); ok {
		switch f.Type {
		case FieldDate:
			text += " (YYYY-MM-DD)"
		case FieldNumber:
			text += " (a number)"
		}
	}
	return Text(text + ":")
}

func itemsOf(kind gateway.Kind, recs []gateway.Record) []Item {
	items := make([]Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, Item{ID: r.ID(), Name: r.Name(), Description: describe(kind, r)})
	}
	return items
}

func itemList(kind gateway.Kind, verb string, items []Item) Message {
	return Items(fmt.Sprintf("Select the %s to %s:", kindLabel(kind), verb), items)
}

// pickAgain — ответ на набранный текст или устаревший клик там, где нужен выбор из списка.
func pickAgain(kind gateway.Kind, verb string, items []Item) []Message {
	return []Message{
		Text(fmt.Sprintf("Please pick a %s from the list.", kindLabel(kind))),
		itemList(kind, verb, items),
	}
}

func describe(kind gateway.Kind, r gateway.Record) string {
	if kind == gateway.KindOffering {
		var parts []string
		if p := r.String("u_price"); p != "" {
			parts = append(parts, "price "+p)
		}
		if s := r.String("u_status"); s != "" {
			parts = append(parts, s)
		}
		return strings.Join(parts, " · ")
	}
	return r.String("u_description")
}

// updateFieldMenu предлагает только ещё не выбранные поля.
func updateFieldMenu(u UpdatingFields, text string) Message {
	var opts []Option
	for _, f := range Fields(u.Kind) {
		if u.selected(f.Name) {
			continue
		}
		opts = append(opts, Option{Label: DisplayName(f.Name), Value: f.Name})
	}
	return Options(text, opts...)
}

func ratingMenu() Message {
	opts := make([]Option, 0, 5)
	for i := 1; i <= 5; i++ {
		opts = append(opts, Option{Label: strings.Repeat("⭐", i), Value: fmt.Sprintf("%s%d", RatingPrefix, i)})
	}
	return Options("How satisfied are you with this conversation?", opts...)
}

// FormatRecord выводит поля записи по строке "name: value".
// Системные поля, кроме sys_id, пропускаются.
func FormatRecord(r gateway.Record) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		if strings.HasPrefix(k, "sys_") && k != gateway.FieldID {
			continue
		}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	var sb strings.Builder
	for _, k := range keys {
		label := DisplayName(k)
		if k == gateway.FieldID {
			label = "id"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, r.String(k))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// compareKeys: name первым, затем остальные по алфавиту, id в конце.
func compareKeys(a, b string) int {
	rank := func(k string) int {
		switch k {
		case gateway.FieldName:
			return 0
		case gateway.FieldID:
			return 2
		}
		return 1
	}
	if ra, rb := rank(a), rank(b); ra != rb {
		return ra - rb
	}
	return strings.Compare(a, b)
}
