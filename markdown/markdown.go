// Package markdown renders author-supplied Markdown (profile bio, entry
// summaries) to sanitised HTML, as bytes or as trusted template HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Render converts src to sanitised HTML. Conversion errors yield the
// escaped source so a malformed bio never breaks a page.
func Render(src string) []byte {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return []byte(template.HTMLEscapeString(src))
	}
	return policy.SanitizeBytes(buf.Bytes())
}

// HTML returns Render's output typed for html/template.
func HTML(src string) template.HTML {
	return template.HTML(Render(src)) //nolint:gosec // sanitised by bluemonday
}
