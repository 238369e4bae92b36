// Package segment turns a business-highlights payload (per-segment metric
// tables plus the business performance report) into table cards, insight
// cards and the derived comparison, structure and radar charts.
package segment

import (
	"agentic_report/pkg/core/payload"
	"agentic_report/pkg/models"
)

// Table is one segment's metric table as produced by the highlights tool.
// Rows are [指标, 本期, 上期, 同比变动].
type Table struct {
	SegmentID   string
	SegmentName string
	Table       *models.FinancialTable
	Conclusion  string
}

// Key identifies the segment: its id, or its name when the id is missing.
func (t Table) Key() string {
	if t.SegmentID != "" {
		return t.SegmentID
	}
	return t.SegmentName
}

// Label is the display name of the segment.
func (t Table) Label() string {
	if t.SegmentName != "" {
		return t.SegmentName
	}
	return t.SegmentID
}

// Report is the business performance report section of the payload.
type Report struct {
	OverallSummary string
	Insights       []models.SegmentInsight
}

// Payload is the decoded business-highlights tool output.
type Payload struct {
	Tables            []Table
	Report            Report
	KeyMetricsSummary *models.FinancialTable
	OverallSummary    string
}

// Empty reports whether the payload carries nothing to build from.
func (p Payload) Empty() bool {
	return len(p.Tables) == 0 && len(p.Report.Insights) == 0 && p.KeyMetricsSummary == nil
}

// InsightFor returns the report insight for a segment key.
func (p Payload) InsightFor(key string) (models.SegmentInsight, bool) {
	for _, in := range p.Report.Insights {
		if key != "" && (in.SegmentID == key || (in.SegmentID == "" && in.SegmentName == key)) {
			return in, true
		}
	}
	return models.SegmentInsight{}, false
}

// Decode reads the payload tolerantly. Field names are matched in both
// snake_case and camelCase, raw_output is unwrapped, and malformed entries are
// skipped rather than failing the whole payload.
func Decode(v any) Payload {
	obj := payload.UnwrapObject(v)
	if obj == nil {
		return Payload{}
	}

	var p Payload
	names := map[string]string{}
	for _, item := range payload.List(obj, "segment_tables") {
		m, ok := payload.AsMap(item)
		if !ok {
			continue
		}
		t := Table{
			SegmentID:   payload.String(m, "segment_id"),
			SegmentName: payload.String(m, "segment_name"),
			Conclusion:  payload.String(m, "conclusion"),
		}
		if inner, ok := payload.Lookup(m, "table"); ok {
			t.Table = payload.DecodeTable(inner)
		} else {
			t.Table = payload.DecodeTable(m)
		}
		if t.Table == nil || t.Key() == "" {
			continue
		}
		names[t.Key()] = t.Label()
		p.Tables = append(p.Tables, t)
	}

	report := payload.Object(obj, "business_performance_report")
	if report == nil {
		report = obj
	}
	p.Report.OverallSummary = payload.String(report, "overall_summary")
	for _, item := range payload.List(report, "segment_insights") {
		m, ok := payload.AsMap(item)
		if !ok {
			continue
		}
		in := models.SegmentInsight{
			SegmentID:         payload.String(m, "segment_id"),
			SegmentName:       payload.String(m, "segment_name"),
			Headline:          payload.String(m, "headline"),
			Contribution:      payload.StringList(m, "contribution"),
			Drivers:           payload.StringList(m, "drivers"),
			StrategyLink:      payload.StringList(m, "strategy_link"),
			RisksAndWatchlist: payload.StringList(m, "risks_and_watchlist"),
		}
		if in.SegmentID == "" && in.SegmentName == "" {
			continue
		}
		if in.SegmentName == "" {
			in.SegmentName = names[in.SegmentID]
		}
		if in.SegmentName == "" {
			in.SegmentName = in.SegmentID
		}
		p.Report.Insights = append(p.Report.Insights, in)
	}

	if km, ok := payload.Lookup(obj, "key_metrics_summary"); ok {
		p.KeyMetricsSummary = payload.DecodeTable(km)
	}
	p.OverallSummary = payload.String(obj, "overall_summary")
	if p.OverallSummary == "" {
		p.OverallSummary = p.Report.OverallSummary
	}
	return p
}
