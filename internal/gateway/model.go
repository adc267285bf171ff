package gateway

import (
	"errors"
	"fmt"
	"strconv"
)

type Kind string

const (
	KindSpecification Kind = "specification"
	KindOffering      Kind = "offering"
)

// ParseKind принимает "specification"/"offering" (и множественное число).
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "specification", "specifications":
		return KindSpecification, true
	case "offering", "offerings":
		return KindOffering, true
	}
	return "", false
}

const (
	FieldID   = "sys_id"
	FieldName = "u_name"
)

// Record — плоская карта полей, как её отдаёт REST API.
type Record map[string]any

func (r Record) ID() string { return r.String(FieldID) }

func (r Record) Name() string { return r.String(FieldName) }

// String возвращает значение поля строкой; числа и bool форматируются.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		// reference-поля приходят как {"value": "...", "display_value": "..."}
		if dv, ok := t["display_value"].(string); ok && dv != "" {
			return dv
		}
		if vv, ok := t["value"].(string); ok {
			return vv
		}
	}
	return fmt.Sprint(v)
}

var ErrNotFound = errors.New("gateway: record not found")

// StatusError — любой ответ не из 2xx.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}
