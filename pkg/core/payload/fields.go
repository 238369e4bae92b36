package payload

import (
	"strings"
	"unicode"
)

// Lookup returns the first field present in obj, trying every name as given
// and then in its camelCase and snake_case spellings.
func Lookup(obj map[string]any, names ...string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	for _, name := range names {
		for _, key := range spellings(name) {
			if v, ok := obj[key]; ok && v != nil {
				return v, true
			}
		}
	}
	return nil, false
}

// String reads the first present field as display text (numbers included).
func String(obj map[string]any, names ...string) string {
	v, ok := Lookup(obj, names...)
	if !ok {
		return ""
	}
	return ScalarString(v)
}

// StringList reads the first present field as a list of non-empty strings.
// A single string is treated as a one-element list.
func StringList(obj map[string]any, names ...string) []string {
	v, ok := Lookup(obj, names...)
	if !ok {
		return nil
	}
	return ToStringList(v)
}

// ToStringList converts a generic value into a list of non-empty display strings.
func ToStringList(v any) []string {
	if s := ScalarString(v); s != "" {
		return []string{s}
	}
	items, ok := AsList(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := ScalarString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Object reads the first present field that is an object.
func Object(obj map[string]any, names ...string) map[string]any {
	v, ok := Lookup(obj, names...)
	if !ok {
		return nil
	}
	m, _ := AsMap(v)
	return m
}

// List reads the first present field that is an array.
func List(obj map[string]any, names ...string) []any {
	v, ok := Lookup(obj, names...)
	if !ok {
		return nil
	}
	l, _ := AsList(v)
	return l
}

func spellings(name string) []string {
	out := []string{name}
	if c := CamelCase(name); c != name {
		out = append(out, c)
	}
	if s := SnakeCase(name); s != name {
		out = append(out, s)
	}
	return out
}

// CamelCase converts snake_case to camelCase ("risk_warnings" -> "riskWarnings").
func CamelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SnakeCase converts camelCase to snake_case ("riskWarnings" -> "risk_warnings").
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
