package engine

import (
	"sync"
	"sync/atomic"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// LanguageDef defines a loadable language grammar.
type LanguageDef struct {
	// Name is the canonical language name.
	Name string

	// Aliases are alternative names the language is known by.
	Aliases []string

	// Embeds lists sub-languages this grammar embeds lazily,
	// e.g. the languages of fenced blocks nested inside markdown.
	// They are loaded eagerly alongside this language
	// so that no in-render lazy load can race or double-load them.
	Embeds []string

	// Load resolves the grammar.
	Load func() (chroma.Lexer, error)
}

func (d LanguageDef) resolve() (chroma.Lexer, error) {
	if d.Load == nil {
		return nil, errtrace.Errorf("language %q has no loader", d.Name)
	}
	lex, err := d.Load()
	if err != nil {
		return nil, errtrace.Errorf("load language %q: %w", d.Name, err)
	}
	if lex == nil {
		return nil, errtrace.Errorf("language %q: loader returned no lexer", d.Name)
	}
	return lex, nil
}

// content is the fingerprintable portion of the definition.
// Loader function identity is deliberately excluded:
// configurations are equal if they declare the same languages.
func (d LanguageDef) content() any {
	return struct {
		Name    string   `json:"name"`
		Aliases []string `json:"aliases"`
		Embeds  []string `json:"embeds"`
	}{d.Name, d.Aliases, d.Embeds}
}

// compositeEmbeds lists the languages a composite grammar is assumed
// to embed in fenced blocks. All of them ship with Chroma.
var compositeEmbeds = []string{
	"go", "python", "javascript", "typescript",
	"json", "yaml", "bash", "html", "css",
}

var registryIDs atomic.Uint64

// Registry resolves language names to "special" identifiers
// (passthrough, no grammar needed) and "bundled" definitions
// (resolvable to a grammar on demand).
//
// A Registry is safe for concurrent use.
type Registry struct {
	id uint64

	mu      sync.RWMutex
	special map[string]struct{}
	aliases map[string]string // requested name -> bundled lexer name
	embeds  map[string][]string
	extra   map[string]LanguageDef
}

// NewRegistry builds a registry over Chroma's bundled lexers.
//
// The special identifiers text, plain, plaintext, txt, and ansi
// resolve without a grammar. The composite languages md, markdown,
// and mdx declare the sub-languages they lazily embed.
func NewRegistry() *Registry {
	r := &Registry{
		id:      registryIDs.Add(1),
		special: make(map[string]struct{}),
		aliases: map[string]string{"mdx": "markdown"},
		embeds:  make(map[string][]string),
		extra:   make(map[string]LanguageDef),
	}
	for _, name := range []string{"text", "plain", "plaintext", "txt", "ansi"} {
		r.special[name] = struct{}{}
	}
	for _, name := range []string{"md", "markdown", "mdx"} {
		r.embeds[name] = compositeEmbeds
	}
	return r
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the shared process-wide registry.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register adds a bundled language definition to the registry,
// taking precedence over Chroma's lexer of the same name.
func (r *Registry) Register(def LanguageDef) {
	name := normalizeLang(def.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extra[name] = def
	for _, alias := range def.Aliases {
		r.aliases[normalizeLang(alias)] = name
	}
}

// Special reports whether name is a passthrough language
// that needs no grammar.
func (r *Registry) Special(name string) bool {
	name = normalizeLang(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.special[name]
	return ok
}

// Bundled resolves name to a bundled language definition.
// It reports false if the registry doesn't know the language.
func (r *Registry) Bundled(name string) (LanguageDef, bool) {
	name = normalizeLang(name)

	r.mu.RLock()
	if def, ok := r.extra[name]; ok {
		r.mu.RUnlock()
		return def, true
	}
	lookup := name
	if target, ok := r.aliases[name]; ok {
		if def, ok := r.extra[target]; ok {
			r.mu.RUnlock()
			return def, true
		}
		lookup = target
	}
	embeds := r.embeds[name]
	r.mu.RUnlock()

	lex := lexers.Get(lookup)
	if lex == nil {
		return LanguageDef{}, false
	}
	cfg := lex.Config()
	return LanguageDef{
		Name:    name,
		Aliases: cfg.Aliases,
		Embeds:  embeds,
		Load:    func() (chroma.Lexer, error) { return lex, nil },
	}, true
}

// AllBundled returns definitions for every bundled language,
// registered definitions first, then Chroma's lexers.
func (r *Registry) AllBundled() []LanguageDef {
	r.mu.RLock()
	defs := make([]LanguageDef, 0, len(r.extra))
	seen := make(map[string]struct{}, len(r.extra))
	for name, def := range r.extra {
		defs = append(defs, def)
		seen[name] = struct{}{}
	}
	r.mu.RUnlock()

	for _, lex := range lexers.GlobalLexerRegistry.Lexers {
		lex := lex
		cfg := lex.Config()
		name := normalizeLang(cfg.Name)
		if _, ok := seen[name]; ok {
			continue
		}
		r.mu.RLock()
		embeds := r.embeds[name]
		r.mu.RUnlock()
		defs = append(defs, LanguageDef{
			Name:    name,
			Aliases: cfg.Aliases,
			Embeds:  embeds,
			Load:    func() (chroma.Lexer, error) { return lex, nil },
		})
	}
	return defs
}
