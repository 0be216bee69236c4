// Package render turns stored narrative text into HTML. The completion
// service's output is untrusted: goldmark's default renderer drops raw HTML
// rather than passing it through.
package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
)

// InsightHTML converts markdown narrative to HTML. Goldmark is used without
// the unsafe-HTML option, so embedded markup in the model output is dropped,
// never interpreted. On conversion failure the text is escaped wholesale.
func InsightHTML(narrative string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(narrative), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(narrative))
	}
	return template.HTML(buf.String())
}
