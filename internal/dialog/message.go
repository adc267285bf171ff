package dialog

import "strings"

type MessageKind string

const (
	MessageText    MessageKind = "text"
	MessageOptions MessageKind = "options"
	MessageItems   MessageKind = "items"
	MessageError   MessageKind = "error"
)

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Message — одна реплика агента для рендерера.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text"`
	Options []Option    `json:"options,omitempty"`
	Items   []Item      `json:"items,omitempty"`
}

const errorPrefix = "⚠️ Error: "

func Text(text string) Message { return Message{Kind: MessageText, Text: text} }

func Options(text string, opts ...Option) Message {
	return Message{Kind: MessageOptions, Text: text, Options: opts}
}

func Items(text string, items []Item) Message {
	return Message{Kind: MessageItems, Text: text, Items: items}
}

func Error(err error) Message {
	return Message{Kind: MessageError, Text: errorPrefix + err.Error()}
}

// Input — один ввод пользователя. Choice: значение пришло кликом по кнопке,
// а не набрано текстом.
type Input struct {
	Value  string
	Choice bool
}

func TextInput(v string) Input   { return Input{Value: v} }
func ChoiceInput(v string) Input { return Input{Value: v, Choice: true} }

func (in Input) keyword() string {
	return strings.ToLower(strings.TrimSpace(in.Value))
}
