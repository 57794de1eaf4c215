// Package markdown converts survey text (titles, descriptions, choice labels)
// from markdown to HTML for rendering models that display rich text.
package markdown

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// The goldmark instance is configured once and is safe for concurrent use.
var (
	converter     goldmark.Markdown
	converterOnce sync.Once
)

func getConverter() goldmark.Markdown {
	converterOnce.Do(func() {
		converter = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Linkify,
			),
		)
	})
	return converter
}

// ToHTML renders text as HTML. Raw HTML in the input is not passed through.
func ToHTML(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := getConverter().Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// InlineHTML renders single-line text without the wrapping paragraph, which
// suits labels and titles.
func InlineHTML(text string) (string, error) {
	html, err := ToHTML(text)
	if err != nil {
		return "", err
	}
	html = strings.TrimSpace(html)
	if strings.HasPrefix(html, "<p>") && strings.HasSuffix(html, "</p>") && strings.Count(html, "<p>") == 1 {
		html = strings.TrimSuffix(strings.TrimPrefix(html, "<p>"), "</p>")
	}
	return html, nil
}
