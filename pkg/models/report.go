package models

// CardType identifies how a visualization card is rendered.
type CardType string

const (
	CardFinancialTable CardType = "financial_table"
	CardInsight        CardType = "insight_card"
	CardChart          CardType = "chart"
	CardDupont         CardType = "dupont"
)

// VisualizationCard is a renderable unit with a stable identity.
// Data holds one of *FinancialTable, *SegmentInsight, *ChartSpec or *DupontNode.
type VisualizationCard struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Source   string   `json:"source,omitempty"`
	Type     CardType `json:"type"`
	Data     any      `json:"data"`
}

// Table returns the card's table payload, or nil for non-table cards.
func (c *VisualizationCard) Table() *FinancialTable {
	if c == nil {
		return nil
	}
	t, _ := c.Data.(*FinancialTable)
	return t
}

// Chart returns the card's chart payload, or nil for non-chart cards.
func (c *VisualizationCard) Chart() *ChartSpec {
	if c == nil {
		return nil
	}
	s, _ := c.Data.(*ChartSpec)
	return s
}

// FinancialTable is a titled grid of display strings.
// Rows may be ragged; use Cell to read them safely.
type FinancialTable struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Insight string     `json:"insight,omitempty"`
}

// Cell returns the cell at (row, col) or "" when the row is short.
func (t *FinancialTable) Cell(row, col int) string {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Width is the widest of the header row and every data row.
func (t *FinancialTable) Width() int {
	if t == nil {
		return 0
	}
	w := len(t.Headers)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// SegmentInsight is the per-segment conclusion block of a business performance report.
type SegmentInsight struct {
	SegmentID         string   `json:"segment_id"`
	SegmentName       string   `json:"segment_name"`
	Headline          string   `json:"headline"`
	Contribution      []string `json:"contribution"`
	Drivers           []string `json:"drivers"`
	StrategyLink      []string `json:"strategy_link"`
	RisksAndWatchlist []string `json:"risks_and_watchlist"`
}

// DupontNode is one node of the DuPont decomposition tree.
// Value is nil when the underlying metric was not reported.
type DupontNode struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Value          *float64      `json:"value"`
	FormattedValue string        `json:"formatted_value"`
	Level          int           `json:"level"`
	Formula        string        `json:"formula,omitempty"`
	Children       []*DupontNode `json:"children"`
}

// Find walks the subtree depth-first and returns the node with the given id.
func (n *DupontNode) Find(id string) *DupontNode {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, c := range n.Children {
		if hit := c.Find(id); hit != nil {
			return hit
		}
	}
	return nil
}

// Walk visits every node in the subtree, parents first.
func (n *DupontNode) Walk(fn func(*DupontNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// DupontMetric is one row of the flat, per-year metric list reported by the agent.
type DupontMetric struct {
	Metric string   `json:"metric"`
	Year   int      `json:"year"`
	Value  *float64 `json:"value"`
	Unit   string   `json:"unit,omitempty"`
}

// GuidanceSection is one of the four fixed guidance blocks.
// Content is either a string or a []string.
type GuidanceSection struct {
	Title   string `json:"title"`
	Content any    `json:"content"`
}

// Text flattens Content to a single display string.
func (g GuidanceSection) Text() string {
	switch c := g.Content.(type) {
	case string:
		return c
	case []string:
		out := ""
		for i, s := range c {
			if i > 0 {
				out += "；"
			}
			out += s
		}
		return out
	}
	return ""
}
