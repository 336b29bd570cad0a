package fenceline

import (
	"bytes"
	_ "embed"
	"strings"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/text/language"

	"github.com/fenceline/fenceline/engine"
)

var (
	//go:embed assets/base.css
	_baseCSS string

	//go:embed assets/copy.js
	_copyJS string
)

// wrapCSS is emitted for blocks whose meta string requests wrapping.
const wrapCSS = "figure.fenceline[data-wrap] pre.chroma { white-space: pre-wrap; }\n"

// codeRenderer is the default chroma-backed Renderer.
type codeRenderer struct {
	inst      *engine.Instance
	themeKeys []string
	formatter *chromahtml.Formatter
}

var _ Renderer = (*codeRenderer)(nil)

func newCodeRenderer(cfg *RendererConfig) *codeRenderer {
	return &codeRenderer{
		inst:      cfg.Instance,
		themeKeys: cfg.ThemeKeys,
		formatter: chromahtml.New(
			chromahtml.PreventSurroundingPre(true),
			chromahtml.WithClasses(true),
			chromahtml.WithLineNumbers(cfg.LineNumbers),
		),
	}
}

// Render highlights one block into a <figure> fragment.
func (r *codeRenderer) Render(b *Block) (*RenderResult, error) {
	name, err := r.inst.EnsureLanguage(b.Language)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	tokens, err := r.inst.Tokenize(name, b.Code)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style(), chroma.Literator(tokens...)); err != nil {
		return nil, errtrace.Wrap(err)
	}

	figure := &html.Node{
		Type: html.ElementNode,
		Data: "figure",
		Attr: []html.Attribute{
			{Key: "class", Val: "fenceline"},
			{Key: "data-language", Val: name},
		},
	}
	wrap := hasMetaFlag(b.Meta, "wrap")
	if wrap {
		figure.Attr = append(figure.Attr, html.Attribute{Key: "data-wrap", Val: ""})
	}
	if b.Locale != language.Und {
		figure.Attr = append(figure.Attr, html.Attribute{Key: "lang", Val: b.Locale.String()})
	}

	pre := &html.Node{
		Type: html.ElementNode,
		Data: "pre",
		Attr: []html.Attribute{
			{Key: "class", Val: chroma.StandardTypes[chroma.PreWrapper]},
		},
	}
	code := &html.Node{Type: html.ElementNode, Data: "code"}
	code.AppendChild(&html.Node{Type: html.RawNode, Data: buf.String()})
	pre.AppendChild(code)
	figure.AppendChild(pre)

	res := &RenderResult{Root: figure}
	if wrap {
		res.Styles = append(res.Styles, wrapCSS)
	}
	return res, nil
}

// style returns the compiled style of the primary theme.
func (r *codeRenderer) style() *chroma.Style {
	if len(r.themeKeys) > 0 {
		if s, ok := r.inst.Theme(r.themeKeys[0]); ok {
			return s
		}
	}
	return styles.Fallback
}

func (r *codeRenderer) BaseStyles() string { return _baseCSS }

// ThemeStyles combines the stylesheets of every configured theme.
// The first theme applies unconditionally; each additional theme
// is scoped to prefers-color-scheme: dark.
func (r *codeRenderer) ThemeStyles() string {
	var buf bytes.Buffer
	for i, key := range r.themeKeys {
		s, ok := r.inst.Theme(key)
		if !ok {
			continue
		}
		if i == 0 {
			_ = r.formatter.WriteCSS(&buf, s)
			continue
		}
		buf.WriteString("@media (prefers-color-scheme: dark) {\n")
		_ = r.formatter.WriteCSS(&buf, s)
		buf.WriteString("}\n")
	}
	return buf.String()
}

func (r *codeRenderer) ScriptModules() []string {
	return []string{_copyJS}
}

// hasMetaFlag reports whether the block meta string
// contains the given whitespace-separated flag.
func hasMetaFlag(meta, flag string) bool {
	for _, f := range strings.Fields(meta) {
		if f == flag {
			return true
		}
	}
	return false
}
