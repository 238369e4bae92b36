package textable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPipeRows(t *testing.T) {
	text := "## 关键业务指标汇总\n" +
		"| 指标 | 2024 | 2023 | 同比 | 含义 |\n" +
		"|---|---|---|---|---|\n" +
		"| **营业收入** | 3378亿 | 3400亿 | -0.6% | 收入承压 |\n" +
		"## 风险提示\n" +
		"| a | b | c | d | e |"

	table := ExtractKeyMetricsTable(text)
	require.NotNil(t, table)
	assert.Equal(t, "关键业务指标汇总", table.Title)
	assert.Equal(t, []string{"指标", "2024", "2023", "同比", "含义"}, table.Headers)
	assert.Equal(t, [][]string{{"营业收入", "3378亿", "3400亿", "-0.6%", "收入承压"}}, table.Rows)
}

func TestExtractThreePipeRows(t *testing.T) {
	text := "关键业务指标汇总\n" +
		"| 营业收入 | 3378亿 | 3400亿 | -0.6% | 收入承压 |\n" +
		"| 净利润 | 1484亿 | 1466亿 | 1.2% | 稳健 |\n" +
		"| 零售AUM | 14.9万亿 | 13.3万亿 | 12.0% | 财富管理 |"

	table := ExtractKeyMetricsTable(text)
	require.NotNil(t, table)
	assert.Equal(t, DefaultHeaders, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "营业收入", table.Rows[0][0])
	assert.Equal(t, "1484亿", table.Rows[1][1])
	assert.Equal(t, "财富管理", table.Rows[2][4])
}

func TestExtractGapAndTokenRows(t *testing.T) {
	text := "关键指标\n" +
		"营业收入  3378亿  3400亿  -0.6%  收入承压\n" +
		"净 利润 1484亿 1466亿 1.2% 稳健 增长\n" +
		"这一行没有数字"

	table := ExtractKeyMetricsTable(text)
	require.NotNil(t, table)
	assert.Equal(t, DefaultHeaders, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"营业收入", "3378亿", "3400亿", "-0.6%", "收入承压"}, table.Rows[0])
	assert.Equal(t, []string{"净 利润", "1484亿", "1466亿", "1.2%", "稳健 增长"}, table.Rows[1])
}

func TestExtractStopsAtEmojiBullet(t *testing.T) {
	text := "关键业务指标\n营业收入  3378亿  3400亿  -0.6%  收入承压\n- 📈 亮点\n净利润  1484亿  1466亿  1.2%  稳健"

	table := ExtractKeyMetricsTable(text)
	require.NotNil(t, table)
	assert.Len(t, table.Rows, 1)
}

func TestExtractNoTable(t *testing.T) {
	assert.Nil(t, ExtractKeyMetricsTable("营业收入  3378亿  3400亿  -0.6%  收入承压"), "no heading")
	assert.Nil(t, ExtractKeyMetricsTable("关键业务指标\n暂无数据"), "no rows")
}
