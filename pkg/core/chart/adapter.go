// Package chart maps the canonical ChartSpec onto the trace/layout shape the
// external rendering engine consumes. It performs no drawing.
package chart

import (
	"agentic_report/pkg/models"
)

// Adapt reshapes every trace of spec for the renderer.
//
//	pie          -> labels/values (from text/y)
//	treemap      -> labels/parents/values
//	sankey       -> node/link
//	scatterpolar -> r/theta/fill
//	others       -> x/y
//
// mode, marker, line, text, textposition, hovertemplate, name and orientation
// pass through unchanged when present.
func Adapt(spec *models.ChartSpec) []map[string]any {
	if spec == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(spec.Traces))
	for _, t := range spec.Traces {
		out = append(out, AdaptTrace(t))
	}
	return out
}

// AdaptTrace reshapes a single trace.
func AdaptTrace(t models.Trace) map[string]any {
	typ := t.Type
	if typ == "" {
		typ = models.TraceBar
	}
	m := map[string]any{"type": string(typ)}

	switch typ {
	case models.TracePie:
		labels, values := t.Text, t.Y
		if len(labels) == 0 {
			labels = t.Labels
		}
		if len(values) == 0 {
			values = t.Values
		}
		m["labels"] = labels
		m["values"] = values
	case models.TraceTreemap:
		m["labels"] = t.Labels
		m["parents"] = t.Parents
		m["values"] = t.Values
	case models.TraceSankey:
		m["node"] = t.Node
		m["link"] = t.Link
	case models.TraceScatterPolar:
		m["r"] = t.R
		m["theta"] = t.Theta
		if t.Fill != "" {
			m["fill"] = t.Fill
		}
	default:
		m["x"] = t.X
		m["y"] = t.Y
	}

	if t.Name != "" {
		m["name"] = t.Name
	}
	if t.Orientation != "" {
		m["orientation"] = t.Orientation
	}
	if t.Mode != "" {
		m["mode"] = t.Mode
	}
	if t.Marker != nil {
		m["marker"] = t.Marker
	}
	if t.Line != nil {
		m["line"] = t.Line
	}
	if len(t.Text) > 0 {
		m["text"] = t.Text
	}
	if t.TextPosition != "" {
		m["textposition"] = t.TextPosition
	}
	if t.HoverTemplate != "" {
		m["hovertemplate"] = t.HoverTemplate
	}
	return m
}

// AdaptLayout converts the layout, emitting only the options that are set.
func AdaptLayout(l models.Layout) map[string]any {
	m := map[string]any{}
	if l.Title != "" {
		m["title"] = map[string]any{"text": l.Title}
	}
	if l.BarMode != "" {
		m["barmode"] = l.BarMode
	}
	if l.Height > 0 {
		m["height"] = l.Height
	}
	if l.ShowLegend != nil {
		m["showlegend"] = *l.ShowLegend
	}
	if l.XAxis != nil {
		m["xaxis"] = l.XAxis
	}
	if l.YAxis != nil {
		m["yaxis"] = l.YAxis
	}
	if l.Polar != nil {
		m["polar"] = l.Polar
	}
	if l.Margin != nil {
		m["margin"] = l.Margin
	}
	return m
}
