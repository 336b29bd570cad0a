package fenceline

import (
	"bytes"
	"fmt"
	"sync"

	"braces.dev/errtrace"
	"golang.org/x/net/html"

	"github.com/fenceline/fenceline/engine"
)

// Transformer renders the fenced code blocks of HTML documents.
//
// A Transformer is safe for concurrent use: many documents may be
// transformed at once, sharing one renderer bootstrap and the
// process-wide engine caches.
type Transformer struct {
	opts Options

	// bootstrap is built lazily, triggered by the first document
	// that actually contains a code block, and shared by all
	// documents processed with these options.
	bootOnce sync.Once
	boot     *bootstrap
	bootErr  error
}

// New builds a Transformer with the given options.
// No engine work happens until a document with code blocks arrives.
func New(opts Options) *Transformer {
	return &Transformer{opts: opts.normalized()}
}

// Transform renders every fenced code block of doc in place,
// using o as the configuration for a one-off Transformer.
//
// Callers processing multiple documents should construct a
// [Transformer] once and reuse it to share the renderer bootstrap.
func Transform(doc *html.Node, path string, o Options) error {
	return errtrace.Wrap(New(o).Transform(doc, path))
}

// bootstrap is the reusable rendering context:
// the renderer plus the asset payloads every document shares.
type bootstrap struct {
	renderer    Renderer
	baseStyles  string
	themeStyles string
	scripts     []string
}

func (t *Transformer) bootstrapOnce() (*bootstrap, error) {
	t.bootOnce.Do(func() {
		t.boot, t.bootErr = t.buildBootstrap()
	})
	return t.boot, errtrace.Wrap(t.bootErr)
}

func (t *Transformer) buildBootstrap() (*bootstrap, error) {
	inst, err := engine.Get(engine.Config{Languages: t.opts.Languages})
	if err != nil {
		return nil, fmt.Errorf("engine instance: %w", err)
	}
	t.logf("engine instance ready (%d custom languages)", len(t.opts.Languages))

	themes := make([]*engine.Theme, len(t.opts.Themes))
	keys := make([]string, len(t.opts.Themes))
	for i, in := range t.opts.Themes {
		th, err := in.resolve()
		if err != nil {
			return nil, fmt.Errorf("theme %d: %w", i, err)
		}
		key, err := inst.EnsureTheme(th)
		if err != nil {
			return nil, fmt.Errorf("theme %d (%v): %w", i, th.Name, err)
		}
		themes[i] = th
		keys[i] = key
		t.logf("loaded theme %v as %v", th.Name, key)
	}

	cfg := &RendererConfig{
		Instance:    inst,
		Themes:      themes,
		ThemeKeys:   keys,
		LineNumbers: t.opts.LineNumbers,
	}

	var renderer Renderer
	if create := t.opts.CreateRenderer; create != nil {
		renderer, err = create(cfg)
		if err != nil {
			return nil, fmt.Errorf("create renderer: %w", err)
		}
	} else {
		renderer = newCodeRenderer(cfg)
	}

	return &bootstrap{
		renderer:    renderer,
		baseStyles:  renderer.BaseStyles(),
		themeStyles: renderer.ThemeStyles(),
		scripts:     renderer.ScriptModules(),
	}, nil
}

// Transform renders every fenced code block of doc in place.
// path is the document's source path, used only as block metadata;
// it may be empty.
//
// Blocks are rendered and spliced in document order. If no block
// exists, the document is untouched and no renderer is constructed.
// A failure on any block fails the whole document; no partial output
// is defined.
func (t *Transformer) Transform(doc *html.Node, path string) error {
	nodes := collectCodeNodes(doc)
	if len(nodes) == 0 {
		return nil
	}

	boot, err := t.bootstrapOnce()
	if err != nil {
		return errtrace.Wrap(err)
	}
	t.logf("rendering %d code blocks in %q", len(nodes), path)

	emitted := newAssetSet()
	for i, cn := range nodes {
		if err := t.renderNode(boot, emitted, cn, doc, path, i, len(nodes)); err != nil {
			return fmt.Errorf("code block %d: %w", i, err)
		}
	}
	return nil
}

func (t *Transformer) renderNode(
	boot *bootstrap,
	emitted *assetSet,
	cn codeNode,
	doc *html.Node,
	path string,
	index, total int,
) error {
	blk := &Block{
		Code:     expandTabs(cn.text, *t.opts.TabWidth),
		Language: cn.lang,
		Meta:     cn.meta,
		Path:     path,
		Root:     doc,
		Index:    index,
		Total:    total,
	}

	if resolve := t.opts.GetBlockLocale; resolve != nil {
		locale, err := resolve(blk)
		if err != nil {
			return fmt.Errorf("resolve locale: %w", err)
		}
		blk.Locale = locale
	}
	if create := t.opts.CreateBlock; create != nil {
		b, err := create(blk)
		if err != nil {
			return fmt.Errorf("create block: %w", err)
		}
		blk = b
	}

	res, err := boot.renderer.Render(blk)
	if err != nil {
		return errtrace.Wrap(err)
	}

	// Shared assets not yet seen in this document go ahead of the
	// block's own markup: one combined <style>, then one <script>
	// per new module.
	styles := make([]string, 0, 2+len(res.Styles))
	styles = append(styles, boot.baseStyles, boot.themeStyles)
	styles = append(styles, res.Styles...)

	var inject []*html.Node
	var pending []string
	for _, s := range styles {
		if s != "" && emitted.claimStyle(s) {
			pending = append(pending, s)
		}
	}
	if len(pending) > 0 {
		style := &html.Node{Type: html.ElementNode, Data: "style"}
		style.AppendChild(&html.Node{
			Type: html.RawNode,
			Data: joinStyles(pending),
		})
		inject = append(inject, style)
	}
	for _, js := range boot.scripts {
		if js == "" || !emitted.claimScript(js) {
			continue
		}
		script := &html.Node{
			Type: html.ElementNode,
			Data: "script",
			Attr: []html.Attribute{{Key: "type", Val: "module"}},
		}
		script.AppendChild(&html.Node{Type: html.RawNode, Data: js})
		inject = append(inject, script)
	}

	first := res.Root.FirstChild
	for _, n := range inject {
		res.Root.InsertBefore(n, first)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, res.Root); err != nil {
		return errtrace.Wrap(err)
	}

	// Replace the original node at its original position.
	repl := &html.Node{Type: html.RawNode, Data: buf.String()}
	cn.parent.InsertBefore(repl, cn.pre)
	cn.parent.RemoveChild(cn.pre)
	return nil
}

func joinStyles(styles []string) string {
	var buf bytes.Buffer
	for _, s := range styles {
		buf.WriteString(s)
		if len(s) > 0 && s[len(s)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func (t *Transformer) logf(format string, args ...any) {
	if t.opts.Log != nil {
		t.opts.Log.Printf(format, args...)
	}
}

// assetSet tracks the style and script payloads
// already emitted into one document.
// It is never shared across documents.
type assetSet struct {
	styles  map[string]struct{}
	scripts map[string]struct{}
}

func newAssetSet() *assetSet {
	return &assetSet{
		styles:  make(map[string]struct{}),
		scripts: make(map[string]struct{}),
	}
}

// claimStyle reports whether s was not yet emitted,
// marking it emitted.
func (as *assetSet) claimStyle(s string) bool {
	if _, ok := as.styles[s]; ok {
		return false
	}
	as.styles[s] = struct{}{}
	return true
}

func (as *assetSet) claimScript(s string) bool {
	if _, ok := as.scripts[s]; ok {
		return false
	}
	as.scripts[s] = struct{}{}
	return true
}
