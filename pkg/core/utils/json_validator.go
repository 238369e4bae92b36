package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// LooksLikeJSON reports whether s, once trimmed and stripped of a code fence,
// is enclosed like a JSON object or array. Prose that merely opens with a
// bracket, such as a "[1]" citation marker, does not qualify.
func LooksLikeJSON(s string) bool {
	return enclosed(CleanMarkdown(s))
}

func enclosed(t string) bool {
	return (strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")) ||
		(strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]"))
}

// RepairJSON attempts to fix common JSON errors from LLM outputs.
// Uses github.com/RealAlexandreAI/json-repair for:
// - Missing quotes around keys
// - Single quotes instead of double quotes
// - Unclosed arrays/objects
// - Trailing commas and comments
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %w", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
// Hjson accepts comments, unquoted keys and strings, and optional commas,
// which covers most of what a model produces when it "almost" writes JSON.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}
	return string(jsonBytes), nil
}

// SmartDecode decodes a JSON-ish string into generic Go values
// (map[string]any, []any, float64, string, bool, nil).
// Order of attempts:
// 1. Standard JSON (after stripping a markdown code fence)
// 2. JSON repair
// 3. Hjson (most lenient)
// Only objects and arrays are accepted; scalars are reported as failures so
// that plain prose never turns into a bare JSON string. The lenient stages
// only run on text enclosed in matching braces or brackets: json-repair will
// otherwise build a container out of ordinary prose and drop the rest.
func SmartDecode(input string) (any, error) {
	cleaned := CleanMarkdown(input)

	if v, ok := decodeContainer(cleaned); ok {
		return v, nil
	}
	if !enclosed(cleaned) {
		return nil, fmt.Errorf("SMART_DECODE_FAILED: input is not enclosed in {} or []")
	}

	if repaired, err := RepairJSON(cleaned); err == nil {
		if v, ok := decodeContainer(repaired); ok {
			return v, nil
		}
	}

	if converted, err := ParseHJSON(cleaned); err == nil {
		if v, ok := decodeContainer(converted); ok {
			return v, nil
		}
	}

	return nil, fmt.Errorf("SMART_DECODE_FAILED: no strategy produced an object or array")
}

func decodeContainer(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	}
	return nil, false
}
