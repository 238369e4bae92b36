// Package pipeline turns agent responses into view state: it dispatches tool
// calls to the builders, appends the resulting cards and tracks the DuPont,
// guidance and report text shown next to them.
package pipeline

import (
	"agentic_report/pkg/core/cards"
	"agentic_report/pkg/core/chart"
	"agentic_report/pkg/core/dupont"
	"agentic_report/pkg/core/guidance"
	"agentic_report/pkg/core/payload"
	"agentic_report/pkg/core/segment"
	"agentic_report/pkg/core/textable"
	"agentic_report/pkg/core/utils"
	"agentic_report/pkg/models"
	"strings"

	"go.uber.org/zap"
)

// Tool names reported in tool_calls.
const (
	ToolFinancialReview    = "generate_financial_review"
	ToolBusinessHighlights = "generate_business_highlights"
	ToolBusinessGuidance   = "generate_business_guidance"
	ToolProfitForecast     = "generate_profit_forecast_and_valuation"
	ToolDupont             = "generate_dupont_analysis"
	ToolVisualization      = "generate_visualization"
)

const (
	statusError             = "error"
	visualizationTypeTables = "financial_tables"
	sourceAnswer            = "answer"
	sourceVisualization     = "visualization"
	sourceStructured        = "structured_response"
)

// financialReviewTables are read from visualization_tables in this order.
var financialReviewTables = []string{
	"balance_sheet_assets",
	"balance_sheet_liabilities",
	"income_statement_revenue",
	"income_statement_expense",
	"cash_flow",
}

// Handler applies agent responses to a card store. It is not safe for
// concurrent use; responses are handled one at a time.
type Handler struct {
	store  *cards.Store
	logger *zap.Logger

	analysis   dupont.Analysis
	year       int
	dupontID   string
	guidance   *[4]models.GuidanceSection
	reportText string
	summaries  []string
	err        string
}

// NewHandler creates a handler over store.
func NewHandler(store *cards.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger.Named("pipeline")}
}

// Store returns the underlying card store.
func (h *Handler) Store() *cards.Store { return h.store }

// Handle applies resp and returns the number of cards added. An error status
// is recorded on the view and leaves every other piece of state untouched.
func (h *Handler) Handle(question string, resp *models.AgentResponse) int {
	if resp == nil {
		return 0
	}
	if strings.EqualFold(resp.Status, statusError) {
		msg := resp.Error
		if msg == "" {
			msg = "agent returned an error"
		}
		h.err = msg
		h.logger.Warn("agent error response", zap.String("question", question), zap.String("error", msg))
		return 0
	}

	h.err = ""
	h.summaries = nil
	override := ""

	added := 0
	for _, call := range resp.ToolCalls {
		n, review := h.handleToolCall(question, call)
		added += n
		if review != "" {
			override = review
		}
	}
	if resp.Visualization != nil {
		added += h.HandleVisualization(question, resp.Visualization)
	}
	if resp.StructuredResponse != nil {
		n, review := h.handleStructured(question, resp.StructuredResponse)
		added += n
		if override == "" {
			override = review
		}
	}

	text := resp.Text()
	if text != "" {
		added += h.appendTextTables(question, sourceAnswer, text, true)
	}
	switch {
	case override != "":
		h.reportText = override
	case text != "":
		h.reportText = text
	case len(h.summaries) > 0:
		h.reportText = strings.Join(h.summaries, "\n\n")
	}

	h.logger.Info("response handled",
		zap.String("question", question),
		zap.Int("tool_calls", len(resp.ToolCalls)),
		zap.Int("cards_added", added),
		zap.Int("cards_total", h.store.Len()))
	return added
}

// HandleToolCall dispatches a single tool call and returns the cards added.
func (h *Handler) HandleToolCall(question string, call models.ToolCall) int {
	n, _ := h.handleToolCall(question, call)
	return n
}

// handleToolCall also returns the financial review summary, which replaces
// the report text.
func (h *Handler) handleToolCall(question string, call models.ToolCall) (int, string) {
	out := call.ToolOutput
	added := 0
	review := ""

	switch call.ToolName {
	case ToolBusinessHighlights:
		added += h.handleHighlights(question, call.ToolName, out)
	case ToolDupont:
		added += h.handleDupont(question, call.ToolName, out)
	case ToolBusinessGuidance:
		h.handleGuidance(out)
	case ToolFinancialReview:
		var n int
		n, review = h.handleFinancialReview(question, call.ToolName, out)
		added += n
	case ToolProfitForecast:
		h.addSummary(forecastSummary(payload.UnwrapObject(out)))
	case ToolVisualization:
		added += h.HandleVisualization(question, out)
	default:
		h.logger.Debug("no builder for tool", zap.String("tool", call.ToolName))
	}

	if text, ok := narrative(out); ok {
		added += h.appendTextTables(question, call.ToolName, text, false)
	}
	return added, review
}

func (h *Handler) handleHighlights(question, source string, out any) int {
	p := segment.Decode(out)
	h.addSummary(highlightsSummary(payload.UnwrapObject(out), p))
	if p.Empty() {
		return 0
	}
	return segment.NewBuilder(h.store, question, source, h.logger).AppendAll(p)
}

func (h *Handler) handleDupont(question, source string, out any) int {
	a := dupont.Decode(out)
	if a.Empty() {
		h.logger.Debug("dupont output carried no metrics")
		return 0
	}
	h.analysis = a
	h.year = a.DefaultYear()
	h.dupontID = dupontCardID(a.CompanyName)

	root := a.Tree(h.year)
	h.addSummary(dupontSummary(root, a.Insights))

	card := &models.VisualizationCard{
		ID:       h.dupontID,
		Question: question,
		Source:   source,
		Type:     models.CardDupont,
		Data:     root,
	}
	if h.store.Append(card) {
		return 1
	}
	// a repeated analysis for the same company replaces the shown tree
	h.store.Update(h.dupontID, root)
	return 0
}

// dupontCardID does not depend on the selected year: the card follows
// SelectYear instead of being duplicated per year.
func dupontCardID(company string) string {
	if company == "" {
		company = "report"
	}
	return dupontIDPrefix + company
}

func (h *Handler) handleGuidance(out any) {
	sections := guidance.Format(out)
	h.guidance = &sections
	h.addSummary(guidance.SummaryText(sections))
}

func (h *Handler) handleFinancialReview(question, source string, out any) (int, string) {
	obj := payload.UnwrapObject(out)
	added := 0
	tables := payload.Object(obj, "visualization_tables")
	for _, key := range financialReviewTables {
		v, ok := tables[key]
		if !ok {
			continue
		}
		if h.appendTable(question, source, payload.DecodeTable(v)) {
			added++
		}
	}
	summary := payload.String(obj, "summary")
	h.addSummary(summary)
	return added, summary
}

// HandleVisualization applies a visualization object. financial_tables
// visualizations become one table card per table, a list under
// visualizations is applied entry by entry, and anything else becomes a chart
// card. Objects that explicitly report has_visualization=false are ignored.
func (h *Handler) HandleVisualization(question string, v any) int {
	obj, ok := payload.AsMap(payload.Unwrap(v))
	if !ok {
		return 0
	}
	if has, ok := obj["has_visualization"].(bool); ok && !has {
		return 0
	}

	if payload.String(obj, "type") == visualizationTypeTables {
		added := 0
		for _, t := range payload.List(obj, "tables") {
			if h.appendTable(question, sourceVisualization, payload.DecodeTable(t)) {
				added++
			}
		}
		return added
	}

	if list := payload.List(obj, "visualizations"); list != nil {
		if _, hasChart := payload.Lookup(obj, "chart_config"); !hasChart {
			added := 0
			for _, item := range list {
				added += h.HandleVisualization(question, item)
			}
			return added
		}
	}

	var data any = obj
	if spec, ok := chart.FromMap(obj); ok {
		data = spec
	}
	card := &models.VisualizationCard{
		ID:       contentID(chartIDPrefix, obj),
		Question: question,
		Source:   sourceVisualization,
		Type:     models.CardChart,
		Data:     data,
	}
	if h.store.Append(card) {
		return 1
	}
	return 0
}

// HandleVisualizeResponse applies a /agent/visualize-text response.
func (h *Handler) HandleVisualizeResponse(question string, resp *models.VisualizeResponse) int {
	if resp == nil {
		return 0
	}
	if resp.Error != "" && !resp.HasVisualization {
		h.err = resp.Error
		return 0
	}
	return h.HandleVisualization(question, resp)
}

// handleStructured runs structured_response through the tool dispatch. The
// tool is taken from tool_calls or tool_name when present and otherwise
// inferred from the payload's fields. Card ids are deterministic, so results
// already added from tool_calls are not duplicated.
func (h *Handler) handleStructured(question string, v any) (int, string) {
	obj, ok := payload.AsMap(payload.Unwrap(v))
	if !ok {
		if text, ok := narrative(v); ok {
			return h.appendTextTables(question, sourceStructured, text, false), ""
		}
		return 0, ""
	}

	if calls := payload.List(obj, "tool_calls"); calls != nil {
		added, review := 0, ""
		for _, item := range calls {
			m, ok := payload.AsMap(item)
			if !ok {
				continue
			}
			out, _ := payload.Lookup(m, "tool_output")
			n, r := h.handleToolCall(question, models.ToolCall{ToolName: payload.String(m, "tool_name"), ToolOutput: out})
			added += n
			if review == "" {
				review = r
			}
		}
		return added, review
	}

	name := payload.String(obj, "tool_name")
	out := any(obj)
	if name != "" {
		if o, ok := payload.Lookup(obj, "tool_output"); ok {
			out = o
		}
	} else {
		name = inferTool(obj)
	}
	if name == "" {
		if _, ok := payload.Lookup(obj, "chart_config"); ok {
			return h.HandleVisualization(question, obj), ""
		}
	}
	return h.handleToolCall(question, models.ToolCall{ToolName: name, ToolOutput: out})
}

// inferTool maps a bare payload to the tool that produces that shape.
func inferTool(obj map[string]any) string {
	has := func(names ...string) bool {
		_, ok := payload.Lookup(obj, names...)
		return ok
	}
	switch {
	case has("segment_tables", "business_performance_report"):
		return ToolBusinessHighlights
	case has("level1", "metrics_json", "analysis_by_year"):
		return ToolDupont
	case has("guidance_period", "business_specific_guidance", "risk_warnings", "business_guidance"):
		return ToolBusinessGuidance
	case has("visualization_tables"):
		return ToolFinancialReview
	case has("consensus_forecast", "valuation_analysis"):
		return ToolProfitForecast
	}
	return ""
}

// appendTextTables extracts tables from narrative text. GFM tables are taken
// when withMarkdown is set; the heuristic key metrics extractor runs only
// when no GFM table was found.
func (h *Handler) appendTextTables(question, source, text string, withMarkdown bool) int {
	added := 0
	if withMarkdown {
		for _, t := range utils.ExtractMarkdownTables(text) {
			if h.appendTableWithPrefix(mdTableIDPrefix, question, source, t) {
				added++
			}
		}
		if added > 0 {
			return added
		}
	}
	if t := textable.ExtractKeyMetricsTable(text); t != nil {
		if h.appendTableWithPrefix(kpiIDPrefix, question, source, t) {
			added++
		}
	}
	return added
}

func (h *Handler) appendTable(question, source string, t *models.FinancialTable) bool {
	return h.appendTableWithPrefix(tableIDPrefix, question, source, t)
}

func (h *Handler) appendTableWithPrefix(prefix, question, source string, t *models.FinancialTable) bool {
	if t == nil {
		return false
	}
	return h.store.Append(&models.VisualizationCard{
		ID:       contentID(prefix, t),
		Question: question,
		Source:   source,
		Type:     models.CardFinancialTable,
		Data:     t,
	})
}

func (h *Handler) addSummary(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	for _, existing := range h.summaries {
		if existing == s {
			return
		}
	}
	h.summaries = append(h.summaries, s)
}

// narrative returns the prose carried by a tool output: the output itself
// when it is plain text, or its first text field.
func narrative(v any) (string, bool) {
	switch t := payload.Unwrap(v).(type) {
	case string:
		return t, strings.TrimSpace(t) != ""
	case map[string]any:
		s, ok := payload.TextField(t)
		return s, ok && strings.TrimSpace(s) != ""
	}
	return "", false
}

// Fail records a transport failure. Cards and view state are left as they were.
func (h *Handler) Fail(err error) {
	if err == nil {
		return
	}
	h.err = err.Error()
	h.logger.Warn("agent call failed", zap.Error(err))
}

// SelectYear switches the DuPont tree to year, both in the view and on the
// stored dupont card. It reports false, and keeps the current selection, when
// there is no data for year.
func (h *Handler) SelectYear(year int) bool {
	for _, y := range h.analysis.Years() {
		if y == year {
			h.year = year
			h.store.Update(h.dupontID, h.analysis.Tree(year))
			return true
		}
	}
	return false
}

// Reset clears the session: every card is released and the view emptied.
func (h *Handler) Reset() {
	h.store.Clear()
	h.analysis = dupont.Analysis{}
	h.year = 0
	h.dupontID = ""
	h.guidance = nil
	h.reportText = ""
	h.summaries = nil
	h.err = ""
}
