package fenceline

import (
	"log"
	"sort"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/text/language"

	"github.com/fenceline/fenceline/engine"
	"github.com/fenceline/fenceline/internal/ptr"
)

// DefaultTabWidth is the tab expansion width
// used when Options.TabWidth is unset.
const DefaultTabWidth = 2

// DefaultTheme is the bundled style used when no theme is configured.
const DefaultTheme = "github"

// ThemeInput names or carries a highlighting theme.
// Exactly one field must be set.
type ThemeInput struct {
	// Name of a bundled Chroma style.
	Name string

	// Theme is raw theme content.
	Theme *engine.Theme

	// Style is an already-constructed Chroma style.
	Style *chroma.Style
}

// resolve normalizes the input into theme content.
func (in ThemeInput) resolve() (*engine.Theme, error) {
	switch {
	case in.Theme != nil:
		return in.Theme, nil
	case in.Style != nil:
		return themeFromStyle(in.Style.Name, in.Style), nil
	case in.Name != "":
		s, ok := styles.Registry[in.Name]
		if !ok {
			return nil, errtrace.Errorf("unknown theme %q", in.Name)
		}
		return themeFromStyle(in.Name, s), nil
	default:
		return nil, errtrace.New("empty theme input")
	}
}

// themeFromStyle extracts theme content from a compiled Chroma style.
// Rules are emitted in token type order so that equal styles
// always produce equal content.
func themeFromStyle(name string, s *chroma.Style) *engine.Theme {
	th := &engine.Theme{Name: name}

	base := s.Get(chroma.Background)
	if base.Background.IsSet() {
		th.Background = base.Background.String()
	}
	if base.Colour.IsSet() {
		th.Foreground = base.Colour.String()
	}

	types := s.Types()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, tt := range types {
		if tt == chroma.Background {
			continue
		}
		entry := s.Get(tt)
		if entry.IsZero() {
			continue
		}
		th.Rules = append(th.Rules, engine.StyleRule{
			Token: tt.String(),
			Style: entry.String(),
		})
	}
	return th
}

// Options configure a [Transformer].
type Options struct {
	// Themes to load. The first theme drives the generated markup;
	// each additional theme is emitted as an alternate color scheme
	// selected by prefers-color-scheme: dark.
	//
	// Empty defaults to the bundled DefaultTheme style.
	Themes []ThemeInput

	// Theme is a single-theme form of Themes.
	//
	// Deprecated: Use Themes.
	Theme *ThemeInput

	// TabWidth is the number of spaces each tab character in a code
	// block expands to. Nil defaults to DefaultTabWidth;
	// zero disables expansion.
	TabWidth *int

	// Languages are custom languages made available to code blocks,
	// preloaded into the engine instance.
	Languages []engine.LanguageDef

	// LineNumbers renders line numbers in the default renderer.
	LineNumbers bool

	// GetBlockLocale, if set, resolves a locale for each block
	// before rendering.
	GetBlockLocale func(*Block) (language.Tag, error)

	// CreateBlock, if set, replaces the render input built for each
	// code node. It receives the default-constructed block.
	CreateBlock func(*Block) (*Block, error)

	// CreateRenderer, if set, replaces the default renderer.
	CreateRenderer func(*RendererConfig) (Renderer, error)

	// Log, if set, receives debug output.
	Log *log.Logger
}

// normalized folds legacy option shapes into the canonical form.
// Nothing past this boundary observes the deprecated fields.
func (o Options) normalized() Options {
	if o.Theme != nil {
		o.Themes = append([]ThemeInput{*o.Theme}, o.Themes...)
		o.Theme = nil
	}
	if len(o.Themes) == 0 {
		o.Themes = []ThemeInput{{Name: DefaultTheme}}
	}
	o.TabWidth = ptr.Of(ptr.Deref(o.TabWidth, DefaultTabWidth))
	return o
}
