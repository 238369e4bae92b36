// Package payload turns arbitrarily shaped tool outputs into something the
// builders can consume: a classified value plus a canonical text rendition.
package payload

import (
	"agentic_report/pkg/core/utils"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the discovered shape of a tool output.
type Kind int

const (
	KindEmpty   Kind = iota // nil or missing
	KindText                // plain string that does not carry JSON
	KindObject              // object without raw_output
	KindWrapped             // object exposing raw_output
	KindList                // array
	KindOther               // number, bool or anything unrecognized
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindObject:
		return "object"
	case KindWrapped:
		return "wrapped"
	case KindList:
		return "list"
	}
	return "other"
}

// RawOutputKey is the wrapper field some tool runners put around the real payload.
const RawOutputKey = "raw_output"

// textFields is tried in order by ResolveText.
var textFields = []string{RawOutputKey, "content", "text", "answer", "summary", "report"}

// Payload is a tool output after shape discovery.
type Payload struct {
	Kind   Kind
	Text   string
	Object map[string]any
	List   []any
	Raw    any
}

// Value returns the payload's underlying value in generic form.
func (p Payload) Value() any {
	switch p.Kind {
	case KindText:
		return p.Text
	case KindObject, KindWrapped:
		return p.Object
	case KindList:
		return p.List
	case KindEmpty:
		return nil
	}
	return p.Raw
}

// Discover classifies v. Strings that carry JSON (optionally fenced, possibly
// malformed) are decoded leniently first; a failed decode leaves them as text.
// Typed Go values (structs, typed maps and slices) are normalized to their
// generic JSON form.
func Discover(v any) Payload {
	switch t := v.(type) {
	case nil:
		return Payload{Kind: KindEmpty}
	case string:
		if utils.LooksLikeJSON(t) {
			if decoded, err := utils.SmartDecode(t); err == nil {
				return Discover(decoded)
			}
		}
		return Payload{Kind: KindText, Text: t, Raw: t}
	case map[string]any:
		if _, ok := t[RawOutputKey]; ok {
			return Payload{Kind: KindWrapped, Object: t, Raw: t}
		}
		return Payload{Kind: KindObject, Object: t, Raw: t}
	case []any:
		return Payload{Kind: KindList, List: t, Raw: t}
	case float64, int, int64, bool, json.Number:
		return Payload{Kind: KindOther, Raw: t}
	}

	normalized := Normalize(v)
	switch normalized.(type) {
	case map[string]any, []any:
		return Discover(normalized)
	}
	return Payload{Kind: KindOther, Raw: v}
}

// Unwrap returns raw_output when v is an object exposing it, otherwise v in
// generic form. It unwraps exactly one level.
func Unwrap(v any) any {
	p := Discover(v)
	if p.Kind == KindWrapped {
		return Discover(p.Object[RawOutputKey]).Value()
	}
	return p.Value()
}

// UnwrapObject is Unwrap narrowed to objects; anything else yields nil.
func UnwrapObject(v any) map[string]any {
	m, _ := Unwrap(v).(map[string]any)
	return m
}

// ResolveText extracts a canonical text from a tool output. It never fails:
// strings come back unchanged, objects are searched for a text field, then for a
// blocks array, and finally stringified.
func ResolveText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}

	obj, ok := AsMap(v)
	if !ok {
		return Stringify(v)
	}

	for _, field := range textFields {
		if s, ok := obj[field].(string); ok {
			return s
		}
	}

	if blocks, ok := obj["blocks"].([]any); ok {
		parts := make([]string, 0, len(blocks))
		for _, b := range blocks {
			parts = append(parts, blockText(b))
		}
		return strings.Join(parts, "\n\n")
	}

	return Stringify(obj)
}

// TextField returns the first string field ResolveText would pick from an
// object, without the blocks and stringify fallbacks.
func TextField(v any) (string, bool) {
	obj, ok := AsMap(v)
	if !ok {
		return "", false
	}
	for _, field := range textFields {
		if s, ok := obj[field].(string); ok {
			return s, true
		}
	}
	return "", false
}

func blockText(b any) string {
	switch t := b.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["text"].(string); ok {
			return s
		}
		if s, ok := t["content"].(string); ok {
			return s
		}
	}
	return Stringify(b)
}

// Stringify renders v as compact JSON without HTML escaping, falling back to
// fmt formatting for values JSON cannot represent.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Normalize converts typed values into generic JSON values via a round trip.
// Values that cannot be marshalled are returned unchanged.
func Normalize(v any) any {
	switch v.(type) {
	case nil, string, float64, bool, map[string]any, []any:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// AsMap returns v as a generic object when it is (or normalizes to) one.
func AsMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	switch v.(type) {
	case nil, string, float64, bool, []any:
		return nil, false
	}
	m, ok := Normalize(v).(map[string]any)
	return m, ok
}

// AsList returns v as a generic array when it is (or normalizes to) one.
func AsList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	switch v.(type) {
	case nil, string, float64, bool, map[string]any:
		return nil, false
	}
	l, ok := Normalize(v).([]any)
	return l, ok
}

// ScalarString renders strings and numbers for display; other values give "".
func ScalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
