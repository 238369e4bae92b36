package segment

import (
	"agentic_report/pkg/core/numeric"
	"agentic_report/pkg/models"
	"strings"
)

// Chart is a derived chart with its stable card id.
type Chart struct {
	ID   string
	Spec *models.ChartSpec
}

const (
	CompareChartID   = "biz-chart-compare"
	StructureChartID = "biz-chart-structure"
	RadarChartID     = "biz-chart-radar"
	metricsChartPfx  = "biz-chart-metrics-"

	structureCategory = "业务结构"
	maxMetricBars     = 6
	minMetricRows     = 3
)

// headlineKeywords is scanned group by group; the first group with a usable
// row wins even if a later group would also match. Bare 收入 comes last so
// that 产品收入 and similar specific lines are not shadowed by it.
var headlineKeywords = [][]string{
	{"营业收入", "营业总收入", "主营业务收入"},
	{"净利润", "利润"},
	{"贷款余额"},
	{"AUM", "管理资产"},
	{"保费"},
	{"交易额", "成交额"},
	{"产品收入"},
	{"MAU", "月活"},
	{"收入"},
}

// RadarDimensions are the fixed capability axes, in display order.
var RadarDimensions = []string{"规模增长", "客户增长", "结构优化", "数字化渗透", "风险改善"}

var radarKeywords = map[string][]string{
	"规模增长":  {"规模", "增长", "扩大", "余额", "提升"},
	"客户增长":  {"客户", "用户", "获客", "户数", "月活", "MAU"},
	"结构优化":  {"结构", "优化", "占比", "转型", "调整"},
	"数字化渗透": {"数字", "线上", "手机", "App", "APP", "科技", "智能", "渗透"},
	"风险改善":  {"风险", "不良", "拨备", "资产质量", "改善", "下降"},
}

const riskDimension = "风险改善"

var negativeKeywords = []string{"上升", "恶化", "压力", "增加", "攀升"}

// MetricRow is a table row whose current-period cell parsed as a number.
type MetricRow struct {
	Label string
	Raw   string
	Value numeric.Value
}

// NumericRows returns the rows of t whose current-period column parses.
func NumericRows(t *models.FinancialTable) []MetricRow {
	if t == nil {
		return nil
	}
	var out []MetricRow
	for i := range t.Rows {
		label := strings.TrimSpace(t.Cell(i, 0))
		raw := strings.TrimSpace(t.Cell(i, 1))
		if label == "" {
			continue
		}
		if v, ok := numeric.ParseMetricValue(raw); ok {
			out = append(out, MetricRow{Label: label, Raw: raw, Value: v})
		}
	}
	return out
}

// HeadlineRow picks the row that represents the segment in comparison charts.
// Percentages and point changes are skipped: the comparison is between amounts.
func HeadlineRow(t *models.FinancialTable) (MetricRow, bool) {
	rows := NumericRows(t)
	for _, group := range headlineKeywords {
		for _, r := range rows {
			if r.Value.Percent || r.Value.Points {
				continue
			}
			if containsAny(r.Label, group) {
				return r, true
			}
		}
	}
	return MetricRow{}, false
}

// ShareRow returns the first numeric row whose label contains 占比.
func ShareRow(t *models.FinancialTable) (MetricRow, bool) {
	for _, r := range NumericRows(t) {
		if strings.Contains(r.Label, "占比") {
			return r, true
		}
	}
	return MetricRow{}, false
}

// Charts derives every chart class from p. The result is deterministic for a
// given payload, so rebuilding yields the same ids.
func Charts(p Payload) []Chart {
	var out []Chart
	if c, ok := CompareChart(p); ok {
		out = append(out, c)
	}
	out = append(out, MetricCharts(p)...)
	if c, ok := StructureChart(p); ok {
		out = append(out, c)
	}
	if c, ok := RadarChart(p); ok {
		out = append(out, c)
	}
	return out
}

type headline struct {
	name string
	row  MetricRow
}

func headlines(p Payload) []headline {
	var out []headline
	for _, t := range p.Tables {
		if r, ok := HeadlineRow(t.Table); ok {
			out = append(out, headline{name: t.Label(), row: r})
		}
	}
	return out
}

// CompareChart is a single bar trace of each segment's headline value.
// It needs at least two segments with a headline value.
func CompareChart(p Payload) (Chart, bool) {
	hs := headlines(p)
	if len(hs) < 2 {
		return Chart{}, false
	}
	trace := models.Trace{Type: models.TraceBar, Name: "核心指标", TextPosition: "auto"}
	for _, h := range hs {
		trace.X = append(trace.X, h.name)
		trace.Y = append(trace.Y, h.row.Value.Number)
		trace.Text = append(trace.Text, h.row.Label+"："+h.row.Raw)
	}
	return Chart{ID: CompareChartID, Spec: &models.ChartSpec{
		Traces: []models.Trace{trace},
		Layout: models.Layout{Title: "各业务板块核心指标对比"},
	}}, true
}

// MetricCharts emits one bar chart per segment with at least three numeric
// rows, using the first six.
func MetricCharts(p Payload) []Chart {
	var out []Chart
	for _, t := range p.Tables {
		rows := NumericRows(t.Table)
		if len(rows) < minMetricRows {
			continue
		}
		if len(rows) > maxMetricBars {
			rows = rows[:maxMetricBars]
		}
		trace := models.Trace{Type: models.TraceBar, Name: t.Label(), TextPosition: "auto"}
		for _, r := range rows {
			trace.X = append(trace.X, r.Label)
			trace.Y = append(trace.Y, r.Value.Number)
			trace.Text = append(trace.Text, r.Raw)
		}
		out = append(out, Chart{ID: metricsChartPfx + t.Key(), Spec: &models.ChartSpec{
			Traces: []models.Trace{trace},
			Layout: models.Layout{Title: t.Label() + "核心指标"},
		}})
	}
	return out
}

// StructureChart is a stacked bar of each segment's 占比 row. When fewer than
// two segments report a share it falls back to a treemap of headline values.
func StructureChart(p Payload) (Chart, bool) {
	var traces []models.Trace
	for _, t := range p.Tables {
		r, ok := ShareRow(t.Table)
		if !ok {
			continue
		}
		traces = append(traces, models.Trace{
			Type: models.TraceBar,
			Name: t.Label(),
			X:    []any{structureCategory},
			Y:    []float64{r.Value.Number},
			Text: []string{r.Label + "：" + r.Raw},
		})
	}
	if len(traces) >= 2 {
		return Chart{ID: StructureChartID, Spec: &models.ChartSpec{
			Traces: traces,
			Layout: models.Layout{Title: "业务结构占比", BarMode: "stack"},
		}}, true
	}

	hs := headlines(p)
	if len(hs) < 2 {
		return Chart{}, false
	}
	tm := models.Trace{Type: models.TraceTreemap}
	for _, h := range hs {
		tm.Labels = append(tm.Labels, h.name)
		tm.Parents = append(tm.Parents, "")
		tm.Values = append(tm.Values, h.row.Value.Number)
		tm.Text = append(tm.Text, h.row.Label+"："+h.row.Raw)
	}
	return Chart{ID: StructureChartID, Spec: &models.ChartSpec{
		Traces: []models.Trace{tm},
		Layout: models.Layout{Title: "业务结构"},
	}}, true
}

// RadarScores scores one segment 1-5 on each of RadarDimensions.
func RadarScores(in models.SegmentInsight) []float64 {
	text := insightText(in)
	scores := make([]float64, len(RadarDimensions))
	for i, dim := range RadarDimensions {
		hits := 0
		for _, kw := range radarKeywords[dim] {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		score := min(5, 2+hits)
		if dim == riskDimension && containsAny(text, negativeKeywords) {
			score = max(1, score-1)
		}
		scores[i] = float64(score)
	}
	return scores
}

// RadarChart emits one scatterpolar trace per segment insight. It needs at
// least two insights.
func RadarChart(p Payload) (Chart, bool) {
	if len(p.Report.Insights) < 2 {
		return Chart{}, false
	}
	traces := make([]models.Trace, 0, len(p.Report.Insights))
	for _, in := range p.Report.Insights {
		name := in.SegmentName
		if name == "" {
			name = in.SegmentID
		}
		traces = append(traces, models.Trace{
			Type:  models.TraceScatterPolar,
			Name:  name,
			R:     RadarScores(in),
			Theta: append([]string(nil), RadarDimensions...),
			Fill:  "toself",
		})
	}
	return Chart{ID: RadarChartID, Spec: &models.ChartSpec{
		Traces: traces,
		Layout: models.Layout{
			Title: "业务板块能力雷达",
			Polar: map[string]any{"radialaxis": map[string]any{"visible": true, "range": []int{0, 5}}},
		},
	}}, true
}

func insightText(in models.SegmentInsight) string {
	parts := []string{in.Headline}
	parts = append(parts, in.Contribution...)
	parts = append(parts, in.Drivers...)
	parts = append(parts, in.StrategyLink...)
	parts = append(parts, in.RisksAndWatchlist...)
	return strings.Join(parts, " ")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
