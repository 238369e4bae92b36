package models

// TraceType enumerates the chart trace kinds understood by the renderer.
type TraceType string

const (
	TraceBar          TraceType = "bar"
	TraceLine         TraceType = "line"
	TracePie          TraceType = "pie"
	TraceScatter      TraceType = "scatter"
	TraceScatterPolar TraceType = "scatterpolar"
	TraceTreemap      TraceType = "treemap"
	TraceSankey       TraceType = "sankey"
)

// ChartSpec is the canonical, renderer-independent chart description.
type ChartSpec struct {
	Traces []Trace `json:"traces"`
	Layout Layout  `json:"layout"`
}

// Trace is a single data series. Only the fields relevant to Type are set.
type Trace struct {
	Type TraceType `json:"type"`
	Name string    `json:"name,omitempty"`

	X []any     `json:"x,omitempty"`
	Y []float64 `json:"y,omitempty"`

	// treemap
	Labels  []string  `json:"labels,omitempty"`
	Parents []string  `json:"parents,omitempty"`
	Values  []float64 `json:"values,omitempty"`

	// scatterpolar
	R     []float64 `json:"r,omitempty"`
	Theta []string  `json:"theta,omitempty"`
	Fill  string    `json:"fill,omitempty"`

	// sankey
	Node map[string]any `json:"node,omitempty"`
	Link map[string]any `json:"link,omitempty"`

	Orientation   string         `json:"orientation,omitempty"`
	Mode          string         `json:"mode,omitempty"`
	Marker        map[string]any `json:"marker,omitempty"`
	Line          map[string]any `json:"line,omitempty"`
	Text          []string       `json:"text,omitempty"`
	TextPosition  string         `json:"textposition,omitempty"`
	HoverTemplate string         `json:"hovertemplate,omitempty"`
}

// Layout carries the chart-level presentation options.
type Layout struct {
	Title      string         `json:"title,omitempty"`
	BarMode    string         `json:"barmode,omitempty"`
	Height     int            `json:"height,omitempty"`
	ShowLegend *bool          `json:"showlegend,omitempty"`
	XAxis      map[string]any `json:"xaxis,omitempty"`
	YAxis      map[string]any `json:"yaxis,omitempty"`
	Polar      map[string]any `json:"polar,omitempty"`
	Margin     map[string]int `json:"margin,omitempty"`
}
