package segment

import (
	"agentic_report/pkg/core/cards"
	"agentic_report/pkg/models"
	"strings"

	"go.uber.org/zap"
)

const (
	tableCardPfx   = "biz-table-"
	insightCardPfx = "biz-insight-"
	// KeyMetricsCardID is the id of the cross-segment summary table card.
	KeyMetricsCardID = "biz-key-metrics-summary"

	summaryListLimit = 2
)

// TableCardID is the card id of a segment's metric table.
func TableCardID(key string) string { return tableCardPfx + key }

// InsightCardID is the card id of a segment's insight card.
func InsightCardID(key string) string { return insightCardPfx + key }

// InsightSummary condenses a segment insight to one line: the headline, then up
// to two drivers, strategy links and risks, separated by " | ".
func InsightSummary(in models.SegmentInsight) string {
	var parts []string
	if h := strings.TrimSpace(in.Headline); h != "" {
		parts = append(parts, h)
	}
	parts = append(parts, firstN(in.Drivers, summaryListLimit)...)
	parts = append(parts, firstN(in.StrategyLink, summaryListLimit)...)
	parts = append(parts, firstN(in.RisksAndWatchlist, summaryListLimit)...)
	return strings.Join(parts, " | ")
}

func firstN(items []string, n int) []string {
	var out []string
	for _, s := range items {
		if len(out) == n {
			break
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Builder appends segment cards to a store. Every card id is derived from the
// segment key, so appending the same payload twice leaves the store unchanged.
type Builder struct {
	store    *cards.Store
	question string
	source   string
	logger   *zap.Logger
}

// NewBuilder creates a builder writing to store. question and source are
// copied onto every card.
func NewBuilder(store *cards.Store, question, source string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{store: store, question: question, source: source, logger: logger.Named("segment")}
}

func (b *Builder) card(id string, typ models.CardType, data any) *models.VisualizationCard {
	return &models.VisualizationCard{ID: id, Question: b.question, Source: b.source, Type: typ, Data: data}
}

// AppendAll runs every append step and returns how many cards were added.
func (b *Builder) AppendAll(p Payload) int {
	n := b.AppendTables(p)
	n += b.AppendInsightCards(p)
	if b.AppendKeyMetricsSummary(p) {
		n++
	}
	n += b.AppendCharts(p)
	b.logger.Debug("segment cards appended",
		zap.Int("segments", len(p.Tables)),
		zap.Int("insights", len(p.Report.Insights)),
		zap.Int("added", n))
	return n
}

// AppendTables adds one financial_table card per segment. The table insight is
// the report-level summary when one exists, else the table's own insight, else
// the segment conclusion. The payload is not modified.
func (b *Builder) AppendTables(p Payload) int {
	added := 0
	for _, t := range p.Tables {
		id := TableCardID(t.Key())
		if b.store.Has(id) {
			continue
		}

		table := *t.Table
		if table.Title == "" {
			table.Title = t.Label() + "指标"
		}
		if in, ok := p.InsightFor(t.Key()); ok {
			if s := InsightSummary(in); s != "" {
				table.Insight = s
			}
		}
		if table.Insight == "" {
			table.Insight = t.Conclusion
		}

		if b.store.Append(b.card(id, models.CardFinancialTable, &table)) {
			added++
		}
	}
	return added
}

// AppendInsightCards adds one insight_card per segment insight.
func (b *Builder) AppendInsightCards(p Payload) int {
	added := 0
	for _, in := range p.Report.Insights {
		key := in.SegmentID
		if key == "" {
			key = in.SegmentName
		}
		id := InsightCardID(key)
		if b.store.Has(id) {
			continue
		}
		if b.store.Append(b.card(id, models.CardInsight, &in)) {
			added++
		}
	}
	return added
}

// AppendKeyMetricsSummary adds the cross-segment summary table when present.
func (b *Builder) AppendKeyMetricsSummary(p Payload) bool {
	if p.KeyMetricsSummary == nil || b.store.Has(KeyMetricsCardID) {
		return false
	}
	table := *p.KeyMetricsSummary
	if table.Title == "" {
		table.Title = "关键业务指标汇总"
	}
	return b.store.Append(b.card(KeyMetricsCardID, models.CardFinancialTable, &table))
}

// AppendCharts adds every derived chart.
func (b *Builder) AppendCharts(p Payload) int {
	added := 0
	for _, c := range Charts(p) {
		if b.store.Has(c.ID) {
			continue
		}
		if b.store.Append(b.card(c.ID, models.CardChart, c.Spec)) {
			added++
		}
	}
	return added
}
