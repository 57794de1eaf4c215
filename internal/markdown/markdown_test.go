package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	html, err := ToHTML("How **often** do you *travel*?")
	require.NoError(t, err)
	assert.Equal(t, "<p>How <strong>often</strong> do you <em>travel</em>?</p>\n", html)
}

func TestToHTMLEmpty(t *testing.T) {
	html, err := ToHTML("")
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestToHTMLDropsRawHTML(t *testing.T) {
	html, err := ToHTML("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestToHTMLStrikethrough(t *testing.T) {
	html, err := ToHTML("~~old~~ new")
	require.NoError(t, err)
	assert.Contains(t, html, "<del>old</del>")
}

func TestInlineHTML(t *testing.T) {
	html, err := InlineHTML("Total **turnover**")
	require.NoError(t, err)
	assert.Equal(t, "Total <strong>turnover</strong>", html)

	html, err = InlineHTML("first\n\nsecond")
	require.NoError(t, err)
	assert.Equal(t, "<p>first</p>\n<p>second</p>", html)
}
