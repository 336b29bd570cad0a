package engine

import (
	"braces.dev/errtrace"

	"github.com/fenceline/fenceline/internal/fingerprint"
	"github.com/fenceline/fenceline/internal/memo"
)

// Config describes the engine instance a caller needs.
type Config struct {
	// Languages are custom languages preloaded into the instance.
	//
	// Requesting any custom language also eagerly preloads every
	// bundled language: custom grammars may be embedded inside
	// composite documents, and eager loading removes the lazy-load
	// races that nested fenced blocks would otherwise hit.
	Languages []LanguageDef

	// Registry resolves special and bundled language names.
	// Nil uses [DefaultRegistry].
	Registry *Registry
}

// fingerprintKey reflects the configuration's semantic content:
// two value-equal configurations always produce the same key.
func (cfg Config) fingerprintKey(reg *Registry) string {
	langs := make([]any, len(cfg.Languages))
	for i, def := range cfg.Languages {
		langs[i] = def.content()
	}
	return fingerprint.Hash(struct {
		Registry  uint64 `json:"registry"`
		Languages []any  `json:"languages"`
	}{reg.id, langs})
}

// Cache maps configuration fingerprints to engine instances,
// guaranteeing at most one construction per distinct configuration,
// shared across all concurrent callers.
//
// Entries are never evicted once construction succeeds.
// A failed construction is dropped so a later call can retry;
// callers that joined it while in flight still observe the failure.
type Cache struct {
	instances memo.Group[string, *Instance]
}

// NewCache builds an empty instance cache.
func NewCache() *Cache {
	c := new(Cache)
	c.instances.RetryFailed = true
	return c
}

// DefaultCache is the process-wide instance cache used by [Get].
var DefaultCache = NewCache()

// Get returns the engine instance for cfg from the process-wide cache.
func Get(cfg Config) (*Instance, error) {
	return errtrace.Wrap2(DefaultCache.Get(cfg))
}

// Get returns the engine instance for cfg,
// constructing it if no value-equal configuration was seen before.
// Concurrent callers with equal configurations
// join a single construction and receive the same instance.
func (c *Cache) Get(cfg Config) (*Instance, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}

	return errtrace.Wrap2(c.instances.Do(cfg.fingerprintKey(reg), func() (*Instance, error) {
		inst := newInstance(reg)

		var defs []LanguageDef
		if len(cfg.Languages) > 0 {
			defs = reg.AllBundled()
		}
		// Custom languages load last so they win name collisions.
		defs = append(defs, cfg.Languages...)
		if len(defs) > 0 {
			if err := inst.LoadLanguages(defs...); err != nil {
				return nil, errtrace.Wrap(err)
			}
		}
		return inst, nil
	}))
}
