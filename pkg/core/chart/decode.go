package chart

import (
	"agentic_report/pkg/core/numeric"
	"agentic_report/pkg/core/payload"
	"agentic_report/pkg/models"
)

// FromMap decodes an agent-provided chart configuration. It accepts either
// {traces, layout} directly or a visualization object carrying chart_config.
// ok is false when no trace could be recovered.
func FromMap(v any) (*models.ChartSpec, bool) {
	obj, isMap := payload.AsMap(v)
	if !isMap {
		return nil, false
	}
	if inner := payload.Object(obj, "chart_config"); inner != nil {
		obj = inner
	}

	rawTraces := payload.List(obj, "traces", "data")
	if len(rawTraces) == 0 {
		return nil, false
	}

	spec := &models.ChartSpec{}
	for _, rt := range rawTraces {
		tm, ok := payload.AsMap(rt)
		if !ok {
			continue
		}
		spec.Traces = append(spec.Traces, decodeTrace(tm))
	}
	if len(spec.Traces) == 0 {
		return nil, false
	}
	spec.Layout = decodeLayout(payload.Object(obj, "layout"))
	return spec, true
}

func decodeTrace(m map[string]any) models.Trace {
	t := models.Trace{
		Type:          models.TraceType(payload.String(m, "type")),
		Name:          payload.String(m, "name"),
		X:             payload.List(m, "x"),
		Y:             floats(payload.List(m, "y")),
		Labels:        strs(payload.List(m, "labels")),
		Parents:       strs(payload.List(m, "parents")),
		Values:        floats(payload.List(m, "values")),
		R:             floats(payload.List(m, "r")),
		Theta:         strs(payload.List(m, "theta")),
		Fill:          payload.String(m, "fill"),
		Node:          payload.Object(m, "node"),
		Link:          payload.Object(m, "link"),
		Orientation:   payload.String(m, "orientation"),
		Mode:          payload.String(m, "mode"),
		Marker:        payload.Object(m, "marker"),
		Line:          payload.Object(m, "line"),
		TextPosition:  payload.String(m, "textposition"),
		HoverTemplate: payload.String(m, "hovertemplate"),
	}
	if t.Type == "" {
		t.Type = models.TraceBar
	}
	if text, ok := payload.Lookup(m, "text"); ok {
		if s := payload.ScalarString(text); s != "" {
			t.Text = []string{s}
		} else if l, ok := payload.AsList(text); ok {
			t.Text = strs(l)
		}
	}
	return t
}

func decodeLayout(m map[string]any) models.Layout {
	if m == nil {
		return models.Layout{}
	}
	l := models.Layout{
		BarMode: payload.String(m, "barmode"),
		XAxis:   payload.Object(m, "xaxis"),
		YAxis:   payload.Object(m, "yaxis"),
		Polar:   payload.Object(m, "polar"),
	}
	if title := payload.Object(m, "title"); title != nil {
		l.Title = payload.String(title, "text")
	} else {
		l.Title = payload.String(m, "title")
	}
	if h, ok := m["height"].(float64); ok {
		l.Height = int(h)
	}
	if show, ok := m["showlegend"].(bool); ok {
		l.ShowLegend = &show
	}
	if margin := payload.Object(m, "margin"); margin != nil {
		l.Margin = map[string]int{}
		for k, v := range margin {
			if f, ok := v.(float64); ok {
				l.Margin[k] = int(f)
			}
		}
	}
	return l
}

// floats keeps positions aligned with the x axis; unparsable cells become 0.
func floats(items []any) []float64 {
	if len(items) == 0 {
		return nil
	}
	out := make([]float64, len(items))
	for i, it := range items {
		switch v := it.(type) {
		case float64:
			out[i] = v
		case string:
			if n := numeric.Parse(v); n != nil {
				out[i] = *n
			}
		}
	}
	return out
}

// strs keeps empty entries; treemap roots are encoded as an empty parent.
func strs(items []any) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = payload.ScalarString(it)
	}
	return out
}
