// Package convert transcodes post bodies between text, markdown and HTML,
// and sanitizes untrusted HTML. All functions are pure.
package convert

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
	xhtml "golang.org/x/net/html"
)

const (
	FormatText     = "text"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

type Converter struct {
	policy *bluemonday.Policy
}

func New() *Converter {
	return &Converter{policy: bluemonday.UGCPolicy()}
}

// Convert transcodes text between formats. Identity when the formats match
// or the pair is not supported; callers treat the output as best-effort.
func (c *Converter) Convert(text, from, to string) string {
	from = normalizeFormat(from)
	to = normalizeFormat(to)
	if from == to {
		return text
	}

	switch {
	case from == FormatMarkdown && to == FormatHTML:
		return strings.TrimSpace(string(blackfriday.Run([]byte(text))))
	case from == FormatMarkdown && to == FormatText:
		rendered := string(blackfriday.Run([]byte(text)))
		return stripHTML(rendered)
	case from == FormatHTML && to == FormatText:
		return stripHTML(text)
	case from == FormatText && to == FormatHTML:
		return html.EscapeString(text)
	default:
		return text
	}
}

// Sanitize strips dangerous markup from untrusted HTML.
func (c *Converter) Sanitize(input string) string {
	return c.policy.Sanitize(input)
}

func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "", "text", "plain":
		return FormatText
	case "md", "markdown":
		return FormatMarkdown
	case "html":
		return FormatHTML
	default:
		return strings.ToLower(format)
	}
}

func stripHTML(input string) string {
	tokenizer := xhtml.NewTokenizer(strings.NewReader(input))
	var builder strings.Builder
	for {
		tokenType := tokenizer.Next()
		if tokenType == xhtml.ErrorToken {
			break
		}
		if tokenType == xhtml.TextToken {
			builder.Write(tokenizer.Text())
		}
	}
	return strings.TrimSpace(builder.String())
}
