// Package markdown renders user and template markdown to HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the input is escaped (WithUnsafe is not set).
var renderer = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Render converts markdown source to an HTML fragment.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HTML renders src for direct use in html/template. On a render failure the
// source is returned escaped.
func HTML(src string) template.HTML {
	out, err := Render(src)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(out)
}
