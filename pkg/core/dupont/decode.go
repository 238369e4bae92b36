package dupont

import (
	"agentic_report/pkg/core/numeric"
	"agentic_report/pkg/core/payload"
	"agentic_report/pkg/models"
	"regexp"
	"sort"
	"strconv"
)

// Analysis is the decoded output of the DuPont analysis tool. Trees are not
// stored: Tree rebuilds one for whichever year is selected.
type Analysis struct {
	CompanyName string
	ReportYear  int
	Metrics     []models.DupontMetric
	Insights    []string

	byYear map[int]map[string]any // analysis_by_year level dictionaries
	levels map[string]any         // top-level level dictionaries
}

// Empty reports whether nothing usable was decoded.
func (a Analysis) Empty() bool {
	return len(a.Metrics) == 0 && len(a.byYear) == 0 && a.levels == nil
}

// Years lists every year a tree can be built for, most recent first.
func (a Analysis) Years() []int {
	seen := map[int]bool{}
	var years []int
	for _, y := range AvailableYears(a.Metrics) {
		seen[y] = true
		years = append(years, y)
	}
	for y := range a.byYear {
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// DefaultYear is the reported year when it has data, else the most recent one.
func (a Analysis) DefaultYear() int {
	return pickYear(a.Years(), a.ReportYear)
}

// ResolveYear returns want when it has data, else DefaultYear.
func (a Analysis) ResolveYear(want int) int {
	for _, y := range a.Years() {
		if y == want {
			return want
		}
	}
	return a.DefaultYear()
}

// Tree builds the tree for year. The flat metric list wins over per-year level
// dictionaries, which win over the top-level ones. It returns nil when the
// analysis is empty.
func (a Analysis) Tree(year int) *models.DupontNode {
	if a.Empty() {
		return nil
	}
	for _, y := range AvailableYears(a.Metrics) {
		if y == year {
			return BuildTree(a.Metrics, year)
		}
	}
	if lv, ok := a.byYear[year]; ok {
		return FromLevels(lv)
	}
	if a.levels != nil {
		return FromLevels(a.levels)
	}
	return BuildTree(a.Metrics, year)
}

var yearPattern = regexp.MustCompile(`\d{4}`)

func parseYear(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	}
	y, _ := strconv.Atoi(yearPattern.FindString(payload.ScalarString(v)))
	return y
}

func parseNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		return numeric.Parse(t)
	}
	return nil
}

// Decode reads a DuPont tool output: metrics_json.metrics (or a top-level
// metrics list), analysis_by_year, report_year, company_name, insights and the
// level1/level2/level3 dictionaries. Unknown shapes decode to an empty Analysis.
func Decode(v any) Analysis {
	obj := payload.UnwrapObject(v)
	if obj == nil {
		return Analysis{}
	}

	a := Analysis{
		CompanyName: payload.String(obj, "company_name"),
		Insights:    payload.StringList(obj, "insights", "key_insights"),
	}
	if y, ok := payload.Lookup(obj, "report_year", "year"); ok {
		a.ReportYear = parseYear(y)
	}

	list := payload.List(payload.Object(obj, "metrics_json"), "metrics")
	if list == nil {
		list = payload.List(obj, "metrics")
	}
	for _, item := range list {
		m, ok := payload.AsMap(item)
		if !ok {
			continue
		}
		year, _ := payload.Lookup(m, "year")
		value, _ := payload.Lookup(m, "value")
		metric := models.DupontMetric{
			Metric: payload.String(m, "metric", "key"),
			Year:   parseYear(year),
			Value:  parseNumber(value),
			Unit:   payload.String(m, "unit"),
		}
		if metric.Metric == "" {
			continue
		}
		a.Metrics = append(a.Metrics, metric)
	}

	if byYear := payload.Object(obj, "analysis_by_year"); byYear != nil {
		a.byYear = map[int]map[string]any{}
		for k, raw := range byYear {
			lv, ok := payload.AsMap(raw)
			y := parseYear(k)
			if !ok || y == 0 || !hasLevels(lv) {
				continue
			}
			a.byYear[y] = lv
		}
	}

	if hasLevels(obj) {
		a.levels = obj
	}
	return a
}

func hasLevels(obj map[string]any) bool {
	for _, k := range []string{"level1", "level2", "level3"} {
		if payload.Object(obj, k) != nil {
			return true
		}
	}
	return false
}

// FromLevels builds the tree from {level1, level2, level3} dictionaries keyed
// by node id. A node's formatted_value is preferred; else a string value is
// shown as written ("15.2%"); else a numeric value is formatted by kind.
// Nodes are looked up in every level so misplaced entries still land.
func FromLevels(obj map[string]any) *models.DupontNode {
	var levels []map[string]any
	for _, k := range []string{"level1", "level2", "level3"} {
		if lv := payload.Object(obj, k); lv != nil {
			levels = append(levels, lv)
		}
	}

	nodes := make(map[string]*models.DupontNode, len(slots))
	for _, s := range slots {
		var entry map[string]any
		for _, lv := range levels {
			if entry = payload.Object(lv, s.id); entry != nil {
				break
			}
		}
		nodes[s.id] = levelNode(s, entry)
	}
	return assemble(nodes)
}

func levelNode(s slot, entry map[string]any) *models.DupontNode {
	if entry == nil {
		return s.node(nil, Placeholder)
	}

	raw, _ := payload.Lookup(entry, "value")
	value := parseNumber(raw)

	formatted := payload.String(entry, "formatted_value")
	if numeric.IsPlaceholder(formatted) {
		formatted = ""
	}
	if formatted == "" {
		if str, ok := raw.(string); ok && !numeric.IsPlaceholder(str) {
			formatted = str
		}
	}
	if formatted == "" && value != nil {
		formatted = s.format(*value, payload.String(entry, "unit"))
	}

	n := s.node(value, formatted)
	if f := payload.String(entry, "formula"); f != "" {
		n.Formula = f
	}
	return n
}
