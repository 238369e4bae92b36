package chart

import (
	"agentic_report/pkg/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	spec, ok := FromMap(map[string]any{
		"has_visualization": true,
		"chart_config": map[string]any{
			"data": []any{
				map[string]any{"type": "bar", "name": "营收", "x": []any{"2023", "2024"}, "y": []any{"1,100", 1234.5}},
				"skipped",
			},
			"layout": map[string]any{
				"title":      map[string]any{"text": "营业收入"},
				"barmode":    "group",
				"height":     320.0,
				"showlegend": false,
				"margin":     map[string]any{"t": 40.0},
			},
		},
	})
	require.True(t, ok)
	require.Len(t, spec.Traces, 1)

	tr := spec.Traces[0]
	assert.Equal(t, models.TraceBar, tr.Type)
	assert.Equal(t, []float64{1100, 1234.5}, tr.Y)
	assert.Equal(t, "营业收入", spec.Layout.Title)
	assert.Equal(t, "group", spec.Layout.BarMode)
	assert.Equal(t, 320, spec.Layout.Height)
	require.NotNil(t, spec.Layout.ShowLegend)
	assert.False(t, *spec.Layout.ShowLegend)
	assert.Equal(t, map[string]int{"t": 40}, spec.Layout.Margin)
}

func TestFromMapRejects(t *testing.T) {
	_, ok := FromMap(map[string]any{"layout": map[string]any{}})
	assert.False(t, ok)
	_, ok = FromMap("chart")
	assert.False(t, ok)
}

func TestAdaptTraceShapes(t *testing.T) {
	pie := AdaptTrace(models.Trace{Type: models.TracePie, Text: []string{"零售", "对公"}, Y: []float64{45, 55}})
	assert.Equal(t, []string{"零售", "对公"}, pie["labels"])
	assert.Equal(t, []float64{45, 55}, pie["values"])
	assert.NotContains(t, pie, "x")

	tree := AdaptTrace(models.Trace{Type: models.TraceTreemap, Labels: []string{"a"}, Parents: []string{""}, Values: []float64{1}})
	assert.Equal(t, []string{""}, tree["parents"])

	polar := AdaptTrace(models.Trace{Type: models.TraceScatterPolar, R: []float64{5}, Theta: []string{"规模增长"}, Fill: "toself"})
	assert.Equal(t, "toself", polar["fill"])

	bar := AdaptTrace(models.Trace{X: []any{"2024"}, Y: []float64{1}, Orientation: "h"})
	assert.Equal(t, "bar", bar["type"])
	assert.Equal(t, "h", bar["orientation"])
	assert.NotContains(t, bar, "mode")
}

func TestAdaptLayout(t *testing.T) {
	show := true
	m := AdaptLayout(models.Layout{Title: "结构", BarMode: "stack", ShowLegend: &show})
	assert.Equal(t, map[string]any{"text": "结构"}, m["title"])
	assert.Equal(t, "stack", m["barmode"])
	assert.Equal(t, true, m["showlegend"])
	assert.NotContains(t, m, "height")

	assert.Nil(t, Adapt(nil))
}
