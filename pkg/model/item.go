package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Item is one model instance as returned by the backend.
type Item map[string]any

// ID returns the string form of the item's "id" value.
func (i Item) ID() (string, bool) {
	if i == nil {
		return "", false
	}
	raw, ok := i["id"]
	if !ok || raw == nil {
		return "", false
	}
	id := StringValue(raw)
	return id, id != ""
}

// Clone returns a shallow copy of the item.
func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// DisplayLabel picks the human label for an item: the first non-empty of
// name, title and username, else "ID: <id>".
func DisplayLabel(item Item) string {
	for _, key := range []string{"name", "title", "username"} {
		if v, ok := item[key]; ok {
			if s := strings.TrimSpace(StringValue(v)); s != "" {
				return s
			}
		}
	}
	id, _ := item.ID()
	return "ID: " + id
}

// Page is one page of a list endpoint.
type Page struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []Item `json:"results"`
}

// ParsePage decodes either a DRF paginated envelope or a bare JSON array. A
// bare array yields Count == len(results).
func ParsePage(data []byte) (Page, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return Page{}, fmt.Errorf("model: decode item list: %w", err)
		}
		return Page{Count: len(items), Results: items}, nil
	}
	var raw struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []Item  `json:"results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Page{}, fmt.Errorf("model: decode page: %w", err)
	}
	page := Page{Count: raw.Count, Results: raw.Results}
	if raw.Next != nil {
		page.Next = *raw.Next
	}
	if raw.Previous != nil {
		page.Previous = *raw.Previous
	}
	if page.Results == nil {
		page.Results = []Item{}
	}
	return page, nil
}

// StringValue renders scalar JSON values the way they appear in forms and
// URLs: integral numbers lose their fractional part, nil becomes "".
func StringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// RelationID extracts the identifier from a relation value. Nested objects
// ({"id": 3, ...}) collapse to their id.
func RelationID(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case map[string]any:
		id, ok := Item(val).ID()
		return id, ok
	case Item:
		return val.ID()
	case string, json.Number, float64, float32, int, int64:
		s := StringValue(val)
		return s, s != ""
	default:
		return "", false
	}
}
