// Package engine manages tokenizer engine instances.
//
// An [Instance] is a stateful accumulation of loaded themes and
// grammars backed by the Chroma library. Constructing an instance and
// loading content into it are both expensive, so the package caches
// aggressively: at most one instance exists per distinct configuration
// (see [Cache]), and within an instance each theme and language is
// loaded at most once, no matter how many goroutines ask for it.
package engine

import (
	"sort"
	"strings"
	"sync"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"

	"github.com/fenceline/fenceline/internal/memo"
)

// Instance is a tokenizer engine instance.
// It accumulates loaded themes and languages over its lifetime
// and is safe for concurrent use.
//
// Instances are built by [Cache.Get]; the zero value is not usable.
type Instance struct {
	registry *Registry

	// tasks memoizes theme and language loads per instance.
	// Keeping it on the instance bounds its storage lifetime:
	// when the instance becomes unreachable, so do its task records.
	tasks memo.Group[string, string]

	mu     sync.RWMutex
	themes map[string]*chroma.Style
	langs  map[string]chroma.Lexer
}

func newInstance(reg *Registry) *Instance {
	return &Instance{
		registry: reg,
		themes:   make(map[string]*chroma.Style),
		langs:    make(map[string]chroma.Lexer),
	}
}

// Registry reports the registry this instance resolves languages against.
func (inst *Instance) Registry() *Registry { return inst.registry }

// LoadTheme compiles the given theme content
// and registers it under the theme's name,
// replacing any previous registration with that name.
func (inst *Instance) LoadTheme(t *Theme) error {
	style, err := buildStyle(t)
	if err != nil {
		return errtrace.Wrap(err)
	}

	inst.mu.Lock()
	inst.themes[t.Name] = style
	inst.mu.Unlock()
	return nil
}

// LoadLanguages loads the given language definitions
// into the instance in one batch.
// Each definition is registered under its name and all of its aliases.
func (inst *Instance) LoadLanguages(defs ...LanguageDef) error {
	loaded := make([]chroma.Lexer, len(defs))
	for i, def := range defs {
		lex, err := def.resolve()
		if err != nil {
			return errtrace.Wrap(err)
		}
		loaded[i] = chroma.Coalesce(lex)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	for i, def := range defs {
		inst.langs[normalizeLang(def.Name)] = loaded[i]
		for _, alias := range def.Aliases {
			inst.langs[normalizeLang(alias)] = loaded[i]
		}
	}
	return nil
}

// HasTheme reports whether a theme with the given name is loaded.
func (inst *Instance) HasTheme(name string) bool {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	_, ok := inst.themes[name]
	return ok
}

// HasLanguage reports whether the given language is loaded.
func (inst *Instance) HasLanguage(name string) bool {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	_, ok := inst.langs[normalizeLang(name)]
	return ok
}

// Theme returns the compiled style registered under name.
func (inst *Instance) Theme(name string) (*chroma.Style, bool) {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	style, ok := inst.themes[name]
	return style, ok
}

// LoadedThemes returns the names of all loaded themes, sorted.
func (inst *Instance) LoadedThemes() []string {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return sortedKeys(inst.themes)
}

// LoadedLanguages returns the names of all loaded languages,
// including aliases, sorted.
func (inst *Instance) LoadedLanguages() []string {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return sortedKeys(inst.langs)
}

// Tokenize lexically analyzes code as the given language.
// Special and unloaded languages degrade to a single plain-text token.
func (inst *Instance) Tokenize(lang, code string) ([]chroma.Token, error) {
	name := normalizeLang(lang)

	inst.mu.RLock()
	lex, ok := inst.langs[name]
	inst.mu.RUnlock()

	if !ok || inst.registry.Special(name) {
		return []chroma.Token{{Type: chroma.Text, Value: code}}, nil
	}
	return errtrace.Wrap2(chroma.Tokenise(lex, nil, code))
}

func normalizeLang(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
