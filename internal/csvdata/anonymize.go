package csvdata

import (
	"strconv"
	"strings"
)

// AnonymizedHeader is the only header line ever sent to the completion
// service.
const AnonymizedHeader = "timestamp,glucose_level,insulin_value"

// Anonymize projects readings down to the minimal PII-free column set, one
// line per reading. No filtering: the output row count always equals the
// input count. Identity, source label and raw payload never cross this
// boundary.
func Anonymize(readings []Reading) string {
	if len(readings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(AnonymizedHeader)
	b.WriteByte('\n')
	for _, r := range readings {
		b.WriteString(r.Timestamp)
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(r.GlucoseLevel, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(r.InsulinValue, 'f', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}
