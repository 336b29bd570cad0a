// Package markdown converts markdown documents to HTML,
// rendering their fenced code blocks with fenceline.
//
// It is a convenience front-end: the markdown parser stays an external
// collaborator, and all highlighting, caching, and asset deduplication
// behavior comes from [fenceline].
package markdown

import (
	"bytes"

	"braces.dev/errtrace"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/fenceline/fenceline"
)

// Converter turns markdown into HTML with highlighted code blocks.
//
// A Converter is safe for concurrent use and should be reused:
// it shares one renderer bootstrap across all conversions.
type Converter struct {
	md goldmark.Markdown
	t  *fenceline.Transformer
}

// New builds a Converter with the given fenceline options.
func New(opts fenceline.Options) *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(goldmarkhtml.WithXHTML()),
		),
		t: fenceline.New(opts),
	}
}

// Convert renders markdown source to an HTML fragment.
// path names the source document and may be empty.
func (c *Converter) Convert(src []byte, path string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return nil, errtrace.Errorf("convert markdown: %w", err)
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		return nil, errtrace.Errorf("parse document: %w", err)
	}
	if err := c.t.Transform(doc, path); err != nil {
		return nil, errtrace.Wrap(err)
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	var out bytes.Buffer
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&out, n); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	return out.Bytes(), nil
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}
