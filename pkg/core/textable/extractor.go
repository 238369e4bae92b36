// Package textable recovers a "key metrics" table from narrative agent text.
//
// The agent frequently writes its metric summary as prose, a pipe table, a
// whitespace-aligned block or a loose sentence per metric. The extractor scans
// the lines below a recognized heading and applies three row strategies in a
// fixed fallback order: pipe-delimited, gap-delimited, then token scan.
package textable

import (
	"agentic_report/pkg/models"
	"regexp"
	"strings"
)

// headingKeywords is ordered longest first so the most specific variant wins.
var headingKeywords = []string{"关键业务指标汇总", "关键业务指标", "关键指标"}

// DefaultHeaders is used when the block carries no header row of its own.
var DefaultHeaders = []string{"指标", "本期", "上期", "同比变动", "业务含义"}

const maxCells = 5

var (
	gapSplit       = regexp.MustCompile(`\t+|\s{2,}`)
	separatorCell  = regexp.MustCompile(`^:?-{2,}:?$`)
	emphasisMarker = strings.NewReplacer("**", "", "__", "")
)

// ExtractKeyMetricsTable returns the key metrics table found in text, or nil
// when there is no heading or no row survives extraction.
func ExtractKeyMetricsTable(text string) *models.FinancialTable {
	lines := splitLines(text)

	start, title := -1, ""
	for i, line := range lines {
		if kw := matchHeading(line); kw != "" {
			start, title = i, kw
			break
		}
	}
	if start < 0 {
		return nil
	}

	table := &models.FinancialTable{Title: title}
	for _, line := range lines[start+1:] {
		if isHeadingLike(line) {
			break
		}
		row := extractRow(line)
		if row == nil {
			continue
		}
		if isHeaderRow(row) {
			if table.Headers == nil && len(row) >= 4 {
				table.Headers = row
			}
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil
	}
	if table.Headers == nil {
		table.Headers = append([]string(nil), DefaultHeaders...)
	}
	return table
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func matchHeading(line string) string {
	for _, kw := range headingKeywords {
		if strings.Contains(line, kw) {
			return kw
		}
	}
	return ""
}

// isHeadingLike marks the end of the metrics block: a markdown heading or a
// bullet that opens with an emoji.
func isHeadingLike(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	trimmed := strings.TrimLeft(line, "-*•· ")
	for _, r := range trimmed {
		return isEmoji(r)
	}
	return false
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	}
	return false
}

func isHeaderRow(row []string) bool {
	joined := strings.Join(row, " ")
	return strings.Contains(joined, "指标") && strings.Contains(joined, "同比")
}

// extractRow applies the three strategies in order and stops at the first hit.
func extractRow(line string) []string {
	if row, ok := pipeRow(line); ok {
		return row
	}
	if isSeparatorLine(line) {
		return nil
	}
	if row, ok := gapRow(line); ok {
		return row
	}
	if row, ok := tokenRow(line); ok {
		return row
	}
	return nil
}

func pipeRow(line string) ([]string, bool) {
	if !strings.Contains(line, "|") {
		return nil, false
	}
	parts := strings.Split(line, "|")
	// Leading and trailing pipes produce empty edge cells.
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	cells := make([]string, 0, len(parts))
	content := 0
	for _, p := range parts {
		c := stripEmphasis(p)
		if !separatorCell.MatchString(c) {
			content++
		}
		cells = append(cells, c)
	}
	if content < 4 {
		return nil, false
	}
	if len(cells) > maxCells {
		cells = cells[:maxCells]
	}
	return cells, true
}

// isSeparatorLine matches markdown table rules such as "|---|:---:|".
func isSeparatorLine(line string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	for _, p := range strings.Split(line, "|") {
		if c := strings.TrimSpace(p); c != "" && !separatorCell.MatchString(c) {
			return false
		}
	}
	return true
}

func stripEmphasis(s string) string {
	s = emphasisMarker.Replace(strings.TrimSpace(s))
	return strings.TrimSpace(strings.Trim(s, "*_"))
}

func gapRow(line string) ([]string, bool) {
	var tokens []string
	for _, t := range gapSplit.Split(line, -1) {
		if t = stripEmphasis(t); t != "" && t != "|" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) < maxCells {
		return nil, false
	}
	return tokens[:maxCells], true
}

// tokenRow treats the first percent-like token at index >= 3 as the YoY column
// and slices the surrounding tokens into name, current, prior and meaning.
func tokenRow(line string) ([]string, bool) {
	fields := strings.Fields(line)
	for i := 3; i < len(fields); i++ {
		if !strings.Contains(fields[i], "%") && !strings.Contains(fields[i], "百分点") {
			continue
		}
		name := stripEmphasis(strings.Join(fields[:i-2], " "))
		return []string{
			name,
			stripEmphasis(fields[i-2]),
			stripEmphasis(fields[i-1]),
			stripEmphasis(fields[i]),
			stripEmphasis(strings.Join(fields[i+1:], " ")),
		}, true
	}
	return nil, false
}
