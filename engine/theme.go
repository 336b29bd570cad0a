package engine

import (
	"strings"
	"sync"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"

	"github.com/fenceline/fenceline/internal/fingerprint"
)

// StyleRule styles one class of tokens.
type StyleRule struct {
	// Token is a Chroma token type name, e.g. "Keyword" or "CommentSingle".
	Token string `json:"token"`

	// Style is a Chroma style entry, e.g. "bold #f92672".
	Style string `json:"style"`
}

// Theme is syntax highlighting theme content:
// a display name, base colors, and token styling rules.
//
// Two themes may share a Name while differing in content
// (a user edits a theme without renaming it),
// so cache keys are derived from the content,
// never from the name alone.
type Theme struct {
	// Name is the theme's display name.
	Name string

	// Background and Foreground are base colors, e.g. "#282a36".
	// Either may be empty.
	Background string
	Foreground string

	// Rules style individual token classes.
	Rules []StyleRule

	keyOnce sync.Once
	key     string
}

// CacheKey returns the content-addressed cache key for the theme.
// It is computed once per Theme value and reused on later calls.
func (t *Theme) CacheKey() string {
	t.keyOnce.Do(func() {
		t.key = t.Name + "-" + fingerprint.Hash(struct {
			Background string      `json:"bg"`
			Foreground string      `json:"fg"`
			Rules      []StyleRule `json:"rules"`
		}{t.Background, t.Foreground, t.Rules})
	})
	return t.key
}

// EnsureTheme loads the theme into the instance
// under its content-addressed cache key, at most once,
// and returns that key.
//
// Loading under the cache key rather than the display name
// keeps an edited theme from being served stale:
// changed content yields a new key and a fresh load.
func (inst *Instance) EnsureTheme(t *Theme) (string, error) {
	key := t.CacheKey()
	if inst.HasTheme(key) {
		return key, nil
	}

	return errtrace.Wrap2(inst.tasks.Do("loadTheme:"+key, func() (string, error) {
		renamed := &Theme{
			Name:       key,
			Background: t.Background,
			Foreground: t.Foreground,
			Rules:      t.Rules,
		}
		if err := inst.LoadTheme(renamed); err != nil {
			return "", errtrace.Wrap(err)
		}
		return key, nil
	}))
}

// buildStyle compiles theme content into a Chroma style.
func buildStyle(t *Theme) (*chroma.Style, error) {
	b := chroma.NewStyleBuilder(t.Name)

	var base []string
	if t.Foreground != "" {
		base = append(base, t.Foreground)
	}
	if t.Background != "" {
		base = append(base, "bg:"+t.Background)
	}
	if len(base) > 0 {
		b.Add(chroma.Background, strings.Join(base, " "))
	}

	for _, r := range t.Rules {
		tt, err := chroma.TokenTypeString(r.Token)
		if err != nil {
			return nil, errtrace.Errorf("theme %q: unknown token type %q", t.Name, r.Token)
		}
		b.Add(tt, r.Style)
	}

	return errtrace.Wrap2(b.Build())
}
