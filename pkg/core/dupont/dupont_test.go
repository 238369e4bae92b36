package dupont

import (
	"agentic_report/pkg/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func sampleMetrics() []models.DupontMetric {
	return []models.DupontMetric{
		{Metric: "ROE", Year: 2024, Value: f(15.2), Unit: "%"},
		{Metric: "ROA", Year: 2024, Value: f(1.05), Unit: "%"},
		{Metric: "EquityMultiplier", Year: 2024, Value: f(14.476)},
		{Metric: "NetProfit", Year: 2024, Value: f(1200), Unit: "亿元"},
		{Metric: "Revenue", Year: 2024, Value: f(3378.25), Unit: "亿元"},
		{Metric: "ROE", Year: 2023, Value: f(16.1), Unit: "%"},
		{Metric: "TotalAssets", Year: 2023, Value: nil},
	}
}

func TestBuildTreeEmptyKeepsShape(t *testing.T) {
	root := BuildTree(nil, 2024)
	require.NotNil(t, root)

	seen := map[string]bool{}
	root.Walk(func(n *models.DupontNode) {
		seen[n.ID] = true
		assert.Equal(t, Placeholder, n.FormattedValue, n.ID)
		assert.Nil(t, n.Value, n.ID)
	})
	for _, id := range SlotIDs() {
		assert.True(t, seen[id], id)
	}
	assert.Len(t, seen, 9)
}

func TestBuildTreeShape(t *testing.T) {
	root := BuildTree(sampleMetrics(), 2024)

	assert.Equal(t, NodeROE, root.ID)
	require.Len(t, root.Children, 2)
	roa, em := root.Children[0], root.Children[1]
	assert.Equal(t, NodeROA, roa.ID)
	assert.Equal(t, NodeEquityMultiplier, em.ID)

	require.Len(t, roa.Children, 2)
	assert.Equal(t, NodeNetProfitMargin, roa.Children[0].ID)
	assert.Equal(t, NodeAssetTurnover, roa.Children[1].ID)
	assert.Equal(t, []string{NodeNetIncome, NodeRevenue},
		[]string{roa.Children[0].Children[0].ID, roa.Children[0].Children[1].ID})
	assert.Equal(t, []string{NodeTotalAssets, NodeShareholdersEquity},
		[]string{em.Children[0].ID, em.Children[1].ID})

	assert.Equal(t, 1, root.Level)
	assert.Equal(t, 2, root.Find(NodeNetProfitMargin).Level)
	assert.Equal(t, 3, root.Find(NodeRevenue).Level)
}

func TestBuildTreeFormatsByKind(t *testing.T) {
	root := BuildTree(sampleMetrics(), 2024)

	assert.Equal(t, "15.20%", root.FormattedValue)
	assert.InDelta(t, 15.2, *root.Value, 1e-9)
	assert.Equal(t, "1.05%", root.Find(NodeROA).FormattedValue)
	assert.Equal(t, "14.48", root.Find(NodeEquityMultiplier).FormattedValue)
	assert.Equal(t, "1200亿元", root.Find(NodeNetIncome).FormattedValue)
	assert.Equal(t, "3378.25亿元", root.Find(NodeRevenue).FormattedValue)
	assert.Equal(t, Placeholder, root.Find(NodeTotalAssets).FormattedValue)

	prior := BuildTree(sampleMetrics(), 2023)
	assert.Equal(t, "16.10%", prior.FormattedValue)
	assert.Equal(t, Placeholder, prior.Find(NodeTotalAssets).FormattedValue, "nil values count as missing")
}

func TestResolveYear(t *testing.T) {
	m := sampleMetrics()
	assert.Equal(t, []int{2024, 2023}, AvailableYears(m))
	assert.Equal(t, 2023, ResolveYear(m, 2023))
	assert.Equal(t, 2024, ResolveYear(m, 2019))
	assert.Equal(t, 2024, ResolveYear(m, 0))
	assert.Equal(t, 2022, ResolveYear(nil, 2022))
}

func TestDecodeLevelStringValue(t *testing.T) {
	a := Decode(map[string]any{
		"level1": map[string]any{"roe": map[string]any{"value": "15.2%"}},
	})
	require.False(t, a.Empty())

	root := a.Tree(a.DefaultYear())
	require.NotNil(t, root)
	assert.Equal(t, "15.2%", root.FormattedValue)
	require.NotNil(t, root.Value)
	assert.InDelta(t, 15.2, *root.Value, 1e-9)
	assert.Equal(t, Placeholder, root.Find(NodeROA).FormattedValue)
}

func TestFromLevelsPrefersFormattedValue(t *testing.T) {
	root := FromLevels(map[string]any{
		"level1": map[string]any{
			"roe":               map[string]any{"value": 12.0, "formatted_value": "12.00%"},
			"equity_multiplier": map[string]any{"value": 11.5},
		},
		"level2": map[string]any{
			"total_assets": map[string]any{"value": 4.2e12, "unit": "元", "formula": "资产合计"},
		},
		"level3": map[string]any{
			"revenue": map[string]any{"value": nil, "formatted_value": "—"},
		},
	})

	assert.Equal(t, "12.00%", root.FormattedValue)
	assert.Equal(t, "11.50", root.Find(NodeEquityMultiplier).FormattedValue)
	ta := root.Find(NodeTotalAssets)
	assert.Equal(t, "4200000000000元", ta.FormattedValue)
	assert.Equal(t, "资产合计", ta.Formula)
	assert.Equal(t, Placeholder, root.Find(NodeRevenue).FormattedValue)
}

func TestDecodeMetricsJSON(t *testing.T) {
	a := Decode(map[string]any{
		"company_name": "招商银行",
		"report_year":  "2024",
		"insights":     []any{"ROE 高于同业", "杠杆稳定", "第三条"},
		"metrics_json": map[string]any{
			"metrics": []any{
				map[string]any{"metric": "ROE", "year": 2024.0, "value": 14.49, "unit": "%"},
				map[string]any{"metric": "ROE", "year": "2023", "value": "16.22", "unit": "%"},
				map[string]any{"metric": "", "year": 2024.0, "value": 1.0},
				"garbage",
			},
		},
		"analysis_by_year": map[string]any{
			"2022": map[string]any{"level1": map[string]any{"roe": map[string]any{"formatted_value": "17.06%"}}},
		},
	})

	assert.Equal(t, "招商银行", a.CompanyName)
	assert.Equal(t, 2024, a.ReportYear)
	assert.Len(t, a.Metrics, 2)
	assert.Len(t, a.Insights, 3)
	assert.Equal(t, []int{2024, 2023, 2022}, a.Years())
	assert.Equal(t, 2024, a.DefaultYear())
	assert.Equal(t, 2023, a.ResolveYear(2023))
	assert.Equal(t, 2024, a.ResolveYear(1999))

	assert.Equal(t, "14.49%", a.Tree(2024).FormattedValue)
	assert.Equal(t, "16.22%", a.Tree(2023).FormattedValue)
	assert.Equal(t, "17.06%", a.Tree(2022).FormattedValue)
}

func TestDecodeEmpty(t *testing.T) {
	assert.True(t, Decode("plain text").Empty())
	assert.Nil(t, Decode(nil).Tree(2024))
}
