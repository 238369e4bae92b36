package models

// ToolCall is one analysis tool invocation reported back by the agent.
// ToolOutput keeps whatever shape the tool produced: string, object or
// an object wrapping the real payload under raw_output.
type ToolCall struct {
	ToolName   string         `json:"tool_name"`
	ToolKwargs map[string]any `json:"tool_kwargs,omitempty"`
	ToolOutput any            `json:"tool_output"`
}

// AgentResponse is the union of the query and generate-section response bodies.
type AgentResponse struct {
	Status             string     `json:"status"`
	Answer             string     `json:"answer,omitempty"`
	Content            string     `json:"content,omitempty"`
	Visualization      any        `json:"visualization,omitempty"`
	ToolCalls          []ToolCall `json:"tool_calls,omitempty"`
	StructuredResponse any        `json:"structured_response,omitempty"`
	Error              string     `json:"error,omitempty"`
}

// Text returns the answer body, falling back to content for section responses.
func (r *AgentResponse) Text() string {
	if r == nil {
		return ""
	}
	if r.Answer != "" {
		return r.Answer
	}
	return r.Content
}

// QueryRequest is the body of POST /agent/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// SectionRequest is the body of POST /agent/generate-section.
type SectionRequest struct {
	SectionName string `json:"section_name"`
	CompanyName string `json:"company_name"`
	Year        string `json:"year"`
}

// VisualizeRequest is the body of POST /agent/visualize-text.
type VisualizeRequest struct {
	Query    string `json:"query"`
	Answer   string `json:"answer"`
	MaxViews int    `json:"max_views,omitempty"`
}

// VisualizeResponse is either a single visualization or, when the answer was
// split into sections, a list of them under Visualizations.
type VisualizeResponse struct {
	HasVisualization  bool                `json:"has_visualization"`
	VisualizationType string              `json:"visualization_type,omitempty"`
	ChartConfig       any                 `json:"chart_config,omitempty"`
	Insights          any                 `json:"insights,omitempty"`
	DisplayTitle      string              `json:"display_title,omitempty"`
	Visualizations    []VisualizeResponse `json:"visualizations,omitempty"`
	Error             string              `json:"error,omitempty"`
}
