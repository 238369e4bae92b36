// Package dupont builds the fixed-shape DuPont decomposition tree
//
//	ROE
//	├── ROA
//	│   ├── net profit margin ── net income, revenue
//	│   └── asset turnover
//	└── equity multiplier ── total assets, shareholders' equity
//
// from the flat per-year metric list or the level dictionaries reported by the
// analysis tool. Missing metrics become placeholders; the shape never changes.
package dupont

import (
	"agentic_report/pkg/core/numeric"
	"agentic_report/pkg/models"
	"sort"
	"strings"
)

// Placeholder is the formatted value of a metric that was not reported.
const Placeholder = "—"

// Metric keys of the flat metric list.
const (
	MetricROE              = "ROE"
	MetricROA              = "ROA"
	MetricNetProfit        = "NetProfit"
	MetricRevenue          = "Revenue"
	MetricTotalAssets      = "TotalAssets"
	MetricEquity           = "Equity"
	MetricNetProfitMargin  = "NetProfitMargin"
	MetricAssetTurnover    = "AssetTurnover"
	MetricEquityMultiplier = "EquityMultiplier"
)

// Node ids of the tree.
const (
	NodeROE                = "roe"
	NodeROA                = "roa"
	NodeEquityMultiplier   = "equity_multiplier"
	NodeNetProfitMargin    = "net_profit_margin"
	NodeAssetTurnover      = "asset_turnover"
	NodeTotalAssets        = "total_assets"
	NodeShareholdersEquity = "shareholders_equity"
	NodeNetIncome          = "net_income"
	NodeRevenue            = "revenue"
)

type valueKind int

const (
	kindRatio valueKind = iota
	kindMultiple
	kindAmount
)

type slot struct {
	id      string
	metric  string
	name    string
	level   int
	formula string
	kind    valueKind
}

// slots lists every node of the tree, parents before children.
var slots = []slot{
	{NodeROE, MetricROE, "净资产收益率", 1, "ROE = 加权平均净资产收益率（年报披露）", kindRatio},
	{NodeROA, MetricROA, "资产净利率", 1, "总资产收益率（年报披露）", kindRatio},
	{NodeEquityMultiplier, MetricEquityMultiplier, "权益乘数", 1, "权益乘数 = ROE / ROA", kindMultiple},
	{NodeNetProfitMargin, MetricNetProfitMargin, "营业净利润率", 2, "净利率 = 净利润 / 营业收入", kindRatio},
	{NodeAssetTurnover, MetricAssetTurnover, "资产周转率", 2, "资产周转率 = ROA / 净利率", kindMultiple},
	{NodeTotalAssets, MetricTotalAssets, "总资产", 2, "总资产", kindAmount},
	{NodeShareholdersEquity, MetricEquity, "股东权益", 2, "股东权益", kindAmount},
	{NodeNetIncome, MetricNetProfit, "净利润", 3, "净利润", kindAmount},
	{NodeRevenue, MetricRevenue, "营业收入", 3, "营业收入", kindAmount},
}

// SlotIDs returns the node ids of the tree in definition order.
func SlotIDs() []string {
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.id
	}
	return ids
}

func (s slot) format(v float64, unit string) string {
	switch s.kind {
	case kindRatio:
		return numeric.FormatRatio(v)
	case kindMultiple:
		return numeric.FormatMultiple(v)
	}
	return numeric.FormatAmount(v, unit)
}

func (s slot) node(value *float64, formatted string) *models.DupontNode {
	if formatted == "" {
		formatted = Placeholder
	}
	return &models.DupontNode{
		ID:             s.id,
		Name:           s.name,
		Value:          value,
		FormattedValue: formatted,
		Level:          s.level,
		Formula:        s.formula,
		Children:       []*models.DupontNode{},
	}
}

// assemble wires the nodes into the fixed shape. Every slot id must be present.
func assemble(nodes map[string]*models.DupontNode) *models.DupontNode {
	margin := nodes[NodeNetProfitMargin]
	margin.Children = []*models.DupontNode{nodes[NodeNetIncome], nodes[NodeRevenue]}

	roa := nodes[NodeROA]
	roa.Children = []*models.DupontNode{margin, nodes[NodeAssetTurnover]}

	em := nodes[NodeEquityMultiplier]
	em.Children = []*models.DupontNode{nodes[NodeTotalAssets], nodes[NodeShareholdersEquity]}

	root := nodes[NodeROE]
	root.Children = []*models.DupontNode{roa, em}
	return root
}

// BuildTree builds the tree for year from the flat metric list. A metric that
// is missing for that year yields a nil value and the "—" placeholder.
func BuildTree(metrics []models.DupontMetric, year int) *models.DupontNode {
	nodes := make(map[string]*models.DupontNode, len(slots))
	for _, s := range slots {
		m, ok := findMetric(metrics, s.metric, year)
		if !ok {
			nodes[s.id] = s.node(nil, Placeholder)
			continue
		}
		v := *m.Value
		nodes[s.id] = s.node(&v, s.format(v, m.Unit))
	}
	return assemble(nodes)
}

func findMetric(metrics []models.DupontMetric, key string, year int) (models.DupontMetric, bool) {
	for _, m := range metrics {
		if m.Year == year && m.Value != nil && strings.EqualFold(m.Metric, key) {
			return m, true
		}
	}
	return models.DupontMetric{}, false
}

// AvailableYears returns the distinct years of metrics, most recent first.
func AvailableYears(metrics []models.DupontMetric) []int {
	seen := map[int]bool{}
	var years []int
	for _, m := range metrics {
		if m.Year > 0 && !seen[m.Year] {
			seen[m.Year] = true
			years = append(years, m.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// ResolveYear returns reported when metrics cover it, otherwise the most
// recent year present. With no dated metrics it returns reported unchanged.
func ResolveYear(metrics []models.DupontMetric, reported int) int {
	return pickYear(AvailableYears(metrics), reported)
}

func pickYear(years []int, want int) int {
	for _, y := range years {
		if y == want {
			return want
		}
	}
	if len(years) > 0 {
		return years[0]
	}
	return want
}
