package pipeline

import (
	"agentic_report/pkg/core/dupont"
	"agentic_report/pkg/core/payload"
	"agentic_report/pkg/core/segment"
	"agentic_report/pkg/models"
	"strings"
)

const (
	summarySep          = "；"
	dupontInsightLimit  = 2
	highlightsSnippetCt = 3
)

// dupontSummary renders "ROE：x；ROA：y；权益乘数：z；洞察：a；b". Placeholder
// values are left out.
func dupontSummary(root *models.DupontNode, insights []string) string {
	var parts []string
	for _, item := range []struct{ label, id string }{
		{"ROE", dupont.NodeROE},
		{"ROA", dupont.NodeROA},
		{"权益乘数", dupont.NodeEquityMultiplier},
	} {
		if n := root.Find(item.id); n != nil && n.FormattedValue != dupont.Placeholder {
			parts = append(parts, item.label+"："+n.FormattedValue)
		}
	}
	if len(insights) > dupontInsightLimit {
		insights = insights[:dupontInsightLimit]
	}
	if len(insights) > 0 {
		parts = append(parts, "洞察："+strings.Join(insights, summarySep))
	}
	return strings.Join(parts, summarySep)
}

// forecastSummary renders the consensus rating, target price, upside and the
// valuation method line of a profit forecast payload.
func forecastSummary(obj map[string]any) string {
	consensus := payload.Object(obj, "consensus_forecast")
	valuation := payload.Object(obj, "valuation_analysis")

	var parts []string
	for _, item := range []struct{ label, field string }{
		{"市场评级", "market_rating"},
		{"一致目标价", "target_price"},
		{"上涨空间", "upside_potential"},
	} {
		if s := payload.String(consensus, item.field); s != "" {
			parts = append(parts, item.label+"："+s)
		}
	}

	var val []string
	if s := payload.String(valuation, "valuation_method"); s != "" {
		val = append(val, "估值方法："+s)
	}
	if s := payload.String(valuation, "current_valuation"); s != "" {
		val = append(val, "当前估值："+s)
	}
	if len(val) > 0 {
		parts = append(parts, "估值信息："+strings.Join(val, "，"))
	}
	return strings.Join(parts, summarySep)
}

// highlightsSummary prefers the overall summary and otherwise lists the first
// few "业务类型：亮点" snippets.
func highlightsSummary(obj map[string]any, p segment.Payload) string {
	if p.OverallSummary != "" {
		return p.OverallSummary
	}
	var snippets []string
	for _, item := range payload.List(obj, "highlights") {
		if len(snippets) == highlightsSnippetCt {
			break
		}
		m, ok := payload.AsMap(item)
		if !ok {
			continue
		}
		text := payload.String(m, "highlights")
		if text == "" {
			continue
		}
		kind := payload.String(m, "business_type")
		if kind == "" {
			kind = "业务板块"
		}
		snippets = append(snippets, kind+"："+text)
	}
	return strings.Join(snippets, summarySep)
}
