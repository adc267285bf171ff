package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/catalog-agent/internal/gateway"
)

type FieldType int

const (
	FieldText FieldType = iota
	FieldNumber
	FieldDate
)

type Field struct {
	Name string
	Type FieldType
}

const fieldPrefix = "u_"

// Обратная ссылка предложения на спецификацию.
const (
	FieldSpecRef     = "u_product_specification"
	FieldSpecRefName = "u_product_specification_name"
)

var specificationFields = []Field{
	{Name: "u_name"},
	{Name: "u_description"},
	{Name: "u_version"},
	{Name: "u_valid_from", Type: FieldDate},
	{Name: "u_valid_to", Type: FieldDate},
}

var offeringFields = []Field{
	{Name: "u_name"},
	{Name: "u_price", Type: FieldNumber},
	{Name: "u_category"},
	{Name: "u_unit_of_measure"},
	{Name: "u_channel"},
	{Name: "u_status"},
	{Name: "u_external_id"},
	{Name: "u_valid_from", Type: FieldDate},
	{Name: "u_valid_to", Type: FieldDate},
}

// Fields — схема создания для вида ресурса, в порядке вопросов.
func Fields(kind gateway.Kind) []Field {
	if kind == gateway.KindOffering {
		return offeringFields
	}
	return specificationFields
}

// RequiredFields — имена полей в порядке вопросов.
func RequiredFields(kind gateway.Kind) []string {
	fs := Fields(kind)
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

func lookupField(kind gateway.Kind, name string) (Field, bool) {
	for _, f := range Fields(kind) {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// DisplayName убирает префикс схемы: u_valid_from -> "valid from".
func DisplayName(field string) string {
	return strings.ReplaceAll(strings.TrimPrefix(field, fieldPrefix), "_", " ")
}

// normalize проверяет присутствие значения и приводит тип.
// Возвращает текст подсказки, если значение не подходит.
func normalize(f Field, raw string) (string, string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", fmt.Sprintf("The %s can't be empty.", DisplayName(f.Name))
	}
	if f.Type == FieldNumber {
		n, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			return "", fmt.Sprintf("The %s must be a number.", DisplayName(f.Name))
		}
		v = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return v, ""
}

// body переводит собранные строки в тело запроса: числовые поля уходят числами.
func body(kind gateway.Kind, values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if f, ok := lookupField(kind, k); ok && f.Type == FieldNumber {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				out[k] = n
				continue
			}
		}
		out[k] = v
	}
	return out
}
