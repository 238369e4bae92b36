package payload

import (
	"agentic_report/pkg/models"
)

// DecodeTable reads a {title, headers, rows, insight} object. Rows may be
// ragged; scalar cells are rendered as display text and anything else as "".
// It returns nil when v is not an object or carries neither headers nor rows.
func DecodeTable(v any) *models.FinancialTable {
	obj, ok := AsMap(v)
	if !ok {
		return nil
	}

	t := &models.FinancialTable{
		Title:   String(obj, "title", "name"),
		Headers: cells(List(obj, "headers", "columns")),
		Insight: String(obj, "insight", "conclusion"),
	}
	for _, r := range List(obj, "rows", "data") {
		row, ok := AsList(r)
		if !ok {
			if s := ScalarString(r); s != "" {
				t.Rows = append(t.Rows, []string{s})
			}
			continue
		}
		t.Rows = append(t.Rows, cells(row))
	}

	if len(t.Headers) == 0 && len(t.Rows) == 0 {
		return nil
	}
	return t
}

func cells(items []any) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = ScalarString(item)
	}
	return out
}
