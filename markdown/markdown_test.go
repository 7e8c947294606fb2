package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderParagraphsAndEmphasis(t *testing.T) {
	out := string(Render("Hello **world**\nsecond line"))

	assert.Contains(t, out, "<strong>world</strong>")
	assert.Contains(t, out, "<br")
	assert.True(t, strings.HasPrefix(out, "<p>"), "got %q", out)
}

func TestRenderStripsScripts(t *testing.T) {
	out := string(Render("hi <script>alert(1)</script>"))

	assert.NotContains(t, out, "<script")
}

func TestRenderLinksAreNoFollow(t *testing.T) {
	out := string(Render("[site](https://example.com)"))

	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "nofollow")
	assert.Contains(t, out, `target="_blank"`)
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, strings.TrimSpace(string(Render(""))))
}

func TestHTMLMatchesRender(t *testing.T) {
	src := "# Title"
	assert.Equal(t, string(Render(src)), string(HTML(src)))
}
