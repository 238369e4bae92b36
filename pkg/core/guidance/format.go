// Package guidance maps a business guidance payload onto the four fixed
// report sections.
package guidance

import (
	"agentic_report/pkg/core/payload"
	"agentic_report/pkg/models"
	"strings"
)

// Section titles, in display order.
const (
	TitleDirection   = "① 经营目标方向"
	TitleAnchors     = "② 核心指标锚点"
	TitleExecution   = "③ 关键执行路径"
	TitleUncertainty = "④ 不确定性与边界"
)

const (
	fallbackUnspecified = "未明确"
	fallbackNoAnchors   = "年报未明确量化口径"
	sep                 = "；"
)

// rangeFields are the quantified anchors, in display order.
var rangeFields = []struct {
	label string
	field string
}{
	{"归母净利润", "parent_net_profit_range"},
	{"归母净利润增长率", "parent_net_profit_growth_range"},
	{"扣非净利润", "non_recurring_profit_range"},
	{"基本每股收益", "eps_range"},
	{"营业收入", "revenue_range"},
}

type source []map[string]any

// lookup reads the first layer that has the field.
func (s source) lookup(name string) (any, bool) {
	for _, obj := range s {
		if v, ok := payload.Lookup(obj, name); ok {
			return v, true
		}
	}
	return nil, false
}

func (s source) str(name string) string {
	v, _ := s.lookup(name)
	return payload.ScalarString(v)
}

func (s source) list(name string) []string {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	if items, ok := payload.AsList(v); ok {
		var out []string
		for _, item := range items {
			if text := itemText(item); text != "" {
				out = append(out, text)
			}
		}
		return out
	}
	return payload.ToStringList(v)
}

// itemText renders a list entry. Objects such as {name, value} become
// "name：value".
func itemText(v any) string {
	if s := payload.ScalarString(v); s != "" {
		return s
	}
	m, ok := payload.AsMap(v)
	if !ok {
		return ""
	}
	name := payload.String(m, "name", "metric", "title")
	value := payload.String(m, "value", "range", "target", "content", "description")
	switch {
	case name != "" && value != "":
		return name + "：" + value
	case name != "":
		return name
	}
	return value
}

// Format always returns the four sections in order. Every field is read in
// both snake_case and camelCase, and a nested business_guidance object is
// consulted before the top level.
func Format(v any) [4]models.GuidanceSection {
	obj := payload.UnwrapObject(v)
	src := source{}
	if nested := payload.Object(obj, "business_guidance"); nested != nil {
		src = append(src, nested)
	}
	if obj != nil {
		src = append(src, obj)
	}

	return [4]models.GuidanceSection{
		{Title: TitleDirection, Content: direction(src)},
		{Title: TitleAnchors, Content: anchors(src)},
		{Title: TitleExecution, Content: joinOr(src.list("business_specific_guidance"), fallbackUnspecified)},
		{Title: TitleUncertainty, Content: joinOr(src.list("risk_warnings"), fallbackUnspecified)},
	}
}

func direction(src source) string {
	var parts []string
	for _, f := range []string{"guidance_period", "expected_performance"} {
		if s := src.str(f); s != "" {
			parts = append(parts, s)
		}
	}
	return joinOr(parts, fallbackUnspecified)
}

func anchors(src source) string {
	var parts []string
	for _, r := range rangeFields {
		if s := src.str(r.field); s != "" {
			parts = append(parts, r.label+"："+s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, sep)
	}
	return joinOr(src.list("key_metrics"), fallbackNoAnchors)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, sep)
}

// SummaryText renders the sections as the chat summary, one "- title：text"
// line per section.
func SummaryText(sections [4]models.GuidanceSection) string {
	lines := make([]string, 0, len(sections))
	for _, s := range sections {
		lines = append(lines, "- "+s.Title+"："+s.Text())
	}
	return strings.Join(lines, "\n")
}
