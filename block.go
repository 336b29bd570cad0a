package fenceline

import (
	"golang.org/x/net/html"
	"golang.org/x/text/language"

	"github.com/fenceline/fenceline/engine"
)

// Block is the render input built for one code node.
type Block struct {
	// Code is the normalized source text of the block.
	Code string

	// Language is the block's language tag, "" if absent.
	Language string

	// Meta is the block's meta string, "" if absent.
	Meta string

	// Locale for the block. language.Und when unresolved.
	Locale language.Tag

	// Path is the source path of the document, if known.
	Path string

	// Root is the full document tree the block came from.
	Root *html.Node

	// Index is the zero-based position of this block
	// among the document's code blocks.
	Index int

	// Total is the number of code blocks in the document.
	Total int
}

// RenderResult is the markup produced for one block.
type RenderResult struct {
	// Root is the produced markup fragment.
	// The pipeline prepends shared assets to its children.
	Root *html.Node

	// Styles are group-scoped style payloads for this render,
	// deduplicated across the document.
	Styles []string
}

// Renderer turns code blocks into styled markup.
//
// Implementations must be safe for concurrent use:
// one renderer is shared by every document a Transformer processes.
type Renderer interface {
	// Render produces markup for one block.
	Render(*Block) (*RenderResult, error)

	// BaseStyles returns the style payload shared by all blocks.
	BaseStyles() string

	// ThemeStyles returns the combined stylesheet
	// of every configured theme.
	ThemeStyles() string

	// ScriptModules returns JS module payloads,
	// each emitted once per document.
	ScriptModules() []string
}

// RendererConfig carries everything a renderer needs,
// built once during bootstrap.
type RendererConfig struct {
	// Instance is the engine instance with all themes loaded.
	Instance *engine.Instance

	// Themes are the resolved themes, in option order.
	Themes []*engine.Theme

	// ThemeKeys are the engine cache keys the themes are loaded under,
	// parallel to Themes.
	ThemeKeys []string

	// LineNumbers requests line numbers in the markup.
	LineNumbers bool
}
