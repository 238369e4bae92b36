package pipeline

import (
	"agentic_report/pkg/models"
)

// View is the state a presentation layer renders after each response.
type View struct {
	Cards        []*models.VisualizationCard `json:"cards"`
	Dupont       *models.DupontNode          `json:"dupont,omitempty"`
	DupontYears  []int                       `json:"dupont_years,omitempty"`
	SelectedYear int                         `json:"selected_year,omitempty"`
	Guidance     *[4]models.GuidanceSection  `json:"guidance,omitempty"`
	ReportText   string                      `json:"report_text,omitempty"`
	Summaries    []string                    `json:"summaries,omitempty"`
	Error        string                      `json:"error,omitempty"`
}

// View snapshots the handler state. Hidden cards are left out of Cards.
func (h *Handler) View() View {
	v := View{
		Cards:      h.store.Visible(),
		Guidance:   h.guidance,
		ReportText: h.reportText,
		Summaries:  append([]string(nil), h.summaries...),
		Error:      h.err,
	}
	if !h.analysis.Empty() {
		v.DupontYears = h.analysis.Years()
		v.SelectedYear = h.analysis.ResolveYear(h.year)
		v.Dupont = h.analysis.Tree(v.SelectedYear)
	}
	return v
}
