package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/example/fieldentry/internal/client/models"
)

// The backend is not consistent about envelopes: some deployments return a
// bare JSON array, others wrap it as {"data": [...]}. normalizeList accepts
// both, preferring the wrapped form when the payload is an object.
func normalizeList(raw []byte) ([]json.RawMessage, error) {
	var wrapped struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("response is neither a list nor a wrapped list")
}

// normalizeObject mirrors normalizeList for single-object responses.
func normalizeObject(raw []byte) (json.RawMessage, error) {
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Data) > 0 && wrapped.Data[0] == '{' {
		return wrapped.Data, nil
	}

	var bare map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return raw, nil
	}

	return nil, fmt.Errorf("response is neither an object nor a wrapped object")
}

// mapErpSystem maps one list element to an ErpSystem, tolerating the key
// variants different backend versions emit. Elements without an id or a name
// are dropped (nil result).
func mapErpSystem(raw json.RawMessage) *models.ErpSystem {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}

	id := firstString(m, "id", "ID", "key", "name", "systemId")
	name := firstString(m, "name", "title", "systemName")
	if id == "" || name == "" {
		return nil
	}

	count := firstNumber(m, "formCount", "form_count", "formsCount", "forms_count")

	return &models.ErpSystem{ID: id, Name: name, FormCount: count}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) int {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return int(t)
		case string:
			if n, err := strconv.Atoi(t); err == nil {
				return n
			}
		}
	}
	return 0
}

// mapLinkOption accepts either a bare string or an object carrying a
// name/value field.
func mapLinkOption(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	return firstString(m, "name", "value", "id")
}
