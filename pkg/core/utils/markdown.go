package utils

import (
	"agentic_report/pkg/models"
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// CleanMarkdown strips surrounding whitespace and an outer markdown code fence.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "```")
	// Drop the info string (```json, ```markdown ...)
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
		info := strings.TrimSpace(cleaned[:nl])
		if info == "" || !strings.ContainsAny(info, " {[|") {
			cleaned = cleaned[nl+1:]
		}
	}
	return strings.TrimSpace(cleaned)
}

var tableMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// ExtractMarkdownTables finds GFM pipe tables in free text and returns them as
// FinancialTables. The nearest preceding heading or short paragraph becomes the
// title. Text that is not markdown, or contains no table, yields nil.
func ExtractMarkdownTables(md string) []*models.FinancialTable {
	if !strings.Contains(md, "|") {
		return nil
	}

	var buf bytes.Buffer
	if err := tableMarkdown.Convert([]byte(md), &buf); err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return nil
	}

	var tables []*models.FinancialTable
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		t := &models.FinancialTable{Title: findTableTitle(table)}

		table.Find("thead tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			t.Headers = append(t.Headers, cleanCellText(cell.Text()))
		})
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, cleanCellText(cell.Text()))
			})
			if len(row) > 0 {
				t.Rows = append(t.Rows, row)
			}
		})

		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	})
	return tables
}

// findTableTitle looks at the element right before the table.
func findTableTitle(table *goquery.Selection) string {
	prev := table.Prev()
	if prev.Length() == 0 {
		return ""
	}
	switch goquery.NodeName(prev) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return cleanCellText(prev.Text())
	case "p":
		text := cleanCellText(prev.Text())
		if len([]rune(text)) <= 40 {
			return strings.TrimRight(text, ":：")
		}
	}
	return ""
}

func cleanCellText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
