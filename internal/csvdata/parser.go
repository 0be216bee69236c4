// Package csvdata turns raw glucose export text into normalized readings and
// the anonymized projection that is allowed to leave the process.
package csvdata

import (
	"fmt"
	"strings"
)

// RawRow maps a column header to the raw cell text of one data line.
type RawRow map[string]string

// requiredColumns pairs the substring a header must contain with the
// canonical export header name used in error messages.
var requiredColumns = []struct {
	field     string
	canonical string
}{
	{"timestamp", "Timestamp (YYYY-MM-DDThh:mm:ss)"},
	{"glucose", "Glucose Value (mg/dL)"},
	{"insulin", "Insulin Value (u)"},
}

// ValidationError reports every required header missing from an export.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("CSV is missing required headers: %s", strings.Join(e.Missing, ", "))
}

// ParseCSV splits raw export text into rows keyed by the header line.
//
// The split is deliberately naive (lines on \n, cells on comma): real-world
// exports are ragged and wrap cells in quotes, and both must survive into the
// RawRow so the extractor owns quote handling. Rows shorter than the header
// get empty strings for the trailing columns; blank lines are skipped.
// If any required column is absent the whole file is rejected with a
// ValidationError naming every missing header and no rows are produced.
func ParseCSV(text string) ([]RawRow, []string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, nil, &ValidationError{Missing: canonicalHeaders()}
	}

	headers := strings.Split(lines[0], ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var missing []string
	for _, req := range requiredColumns {
		found := false
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), req.field) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req.canonical)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &ValidationError{Missing: missing}
	}

	rows := make([]RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, ",")
		row := make(RawRow, len(headers))
		for i, h := range headers {
			if i < len(values) {
				row[h] = strings.TrimSpace(values[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, headers, nil
}

func canonicalHeaders() []string {
	out := make([]string, 0, len(requiredColumns))
	for _, req := range requiredColumns {
		out = append(out, req.canonical)
	}
	return out
}
