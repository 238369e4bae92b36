// Package numeric parses the display strings agents put in metric tables
// ("1.23亿", "12.5%", "3,456万元") and formats values back for display.
package numeric

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Value is a parsed metric cell.
type Value struct {
	Number  float64 // rescaled to base units; percentages are kept as written
	Percent bool    // the cell carried a % suffix
	Points  bool    // the cell was expressed in 百分点 (percentage points)
	Unit    string  // the scale unit that was applied, if any
	Raw     string
}

// scaleUnits is checked in order: "万亿" must win over "亿" and "万".
var scaleUnits = []struct {
	suffix string
	factor float64
}{
	{"万亿", 1e12},
	{"亿", 1e8},
	{"万", 1e4},
}

var placeholders = map[string]bool{
	"":    true,
	"/":   true,
	"-":   true,
	"--":  true,
	"—":   true,
	"——":  true,
	"暂无":  true,
	"无":   true,
	"N/A": true,
	"n/a": true,
	"不适用": true,
}

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// IsPlaceholder reports whether s is one of the "no value" markers.
func IsPlaceholder(s string) bool {
	return placeholders[strings.TrimSpace(s)]
}

// ParseMetricValue parses a metric cell. It returns ok=false for placeholder
// text and for cells without any number.
//
//	ParseMetricValue("1.23亿") -> 123000000
//	ParseMetricValue("12.5%")  -> 12.5 (Percent)
//	ParseMetricValue("-")      -> not ok
func ParseMetricValue(raw string) (Value, bool) {
	s := strings.TrimSpace(raw)
	if IsPlaceholder(s) {
		return Value{}, false
	}
	s = strings.NewReplacer(",", "", "，", "", " ", "").Replace(s)

	match := numberPattern.FindString(s)
	if match == "" {
		return Value{}, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return Value{}, false
	}

	v := Value{Number: n, Raw: raw}
	switch {
	case strings.Contains(s, "%") || strings.Contains(s, "％"):
		v.Percent = true
	case strings.Contains(s, "百分点"):
		v.Points = true
	default:
		for _, u := range scaleUnits {
			if strings.Contains(s, u.suffix) {
				v.Number = n * u.factor
				v.Unit = u.suffix
				break
			}
		}
	}
	return v, true
}

// Parse is ParseMetricValue reduced to a pointer, nil when absent.
func Parse(raw string) *float64 {
	v, ok := ParseMetricValue(raw)
	if !ok {
		return nil
	}
	n := v.Number
	return &n
}

// FormatRatio renders a percentage value: 15.2 -> "15.20%".
func FormatRatio(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatMultiple renders a multiple such as asset turnover: 1.5 -> "1.50".
func FormatMultiple(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatAmount renders an amount as an integer when it is whole, otherwise
// with two decimals, followed by the unit: (120, "亿元") -> "120亿元".
func FormatAmount(v float64, unit string) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64) + unit
	}
	return fmt.Sprintf("%.2f", v) + unit
}
