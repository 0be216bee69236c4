package csvdata

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Reading is one normalized glucose/insulin sample. Timestamp keeps the
// literal extracted text; numeric fields default to 0 when the cell does not
// parse, so a partly broken row still contributes to the preview.
type Reading struct {
	Timestamp    string  `json:"timestamp"`
	GlucoseLevel float64 `json:"glucose_level"`
	InsulinValue float64 `json:"insulin_value"`
	SourceLabel  string  `json:"source_label"`
	RawPayload   string  `json:"raw_data"`
}

// Normalize extracts typed fields from raw rows, order preserved. Headers are
// scanned in source order and the first one containing "glucose", "insulin"
// or "timestamp" (case-insensitive) wins for that field.
func Normalize(rows []RawRow, headers []string, sourceLabel string) []Reading {
	readings := make([]Reading, 0, len(rows))
	for _, row := range rows {
		r := Reading{SourceLabel: sourceLabel}
		var haveGlucose, haveInsulin, haveTimestamp bool
		for _, key := range headers {
			lower := strings.ToLower(key)
			switch {
			case strings.Contains(lower, "glucose") && !haveGlucose:
				haveGlucose = true
				if v, err := strconv.ParseFloat(stripQuotes(row[key]), 64); err == nil {
					r.GlucoseLevel = v
				}
			case strings.Contains(lower, "insulin") && !haveInsulin:
				haveInsulin = true
				if v, err := strconv.ParseFloat(stripQuotes(row[key]), 64); err == nil {
					r.InsulinValue = v
				}
			case strings.Contains(lower, "timestamp") && !haveTimestamp:
				haveTimestamp = true
				r.Timestamp = stripQuotes(row[key])
			}
		}
		if raw, err := json.Marshal(row); err == nil {
			r.RawPayload = string(raw)
		}
		readings = append(readings, r)
	}
	return readings
}

// stripQuotes removes exactly one pair of matching wrapping quotes. Unquoted
// values pass through untouched; a lone or mismatched quote is kept as data.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
