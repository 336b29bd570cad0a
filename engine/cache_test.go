package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDef builds a custom language whose loads are observable.
func countingDef(name string, calls *atomic.Int32) LanguageDef {
	return LanguageDef{
		Name: name,
		Load: func() (chroma.Lexer, error) {
			calls.Add(1)
			return lexers.Get("go"), nil
		},
	}
}

func TestCache_sharesInstance(t *testing.T) {
	t.Parallel()

	c := NewCache()

	a, err := c.Get(Config{})
	require.NoError(t, err)
	b, err := c.Get(Config{})
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestCache_valueEqualConfigs(t *testing.T) {
	t.Parallel()

	c := NewCache()

	// Distinct slices with equal content must hit the same entry.
	var calls atomic.Int32
	a, err := c.Get(Config{Languages: []LanguageDef{countingDef("frob", &calls)}})
	require.NoError(t, err)
	b, err := c.Get(Config{Languages: []LanguageDef{countingDef("frob", &calls)}})
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCache_distinctConfigs(t *testing.T) {
	t.Parallel()

	c := NewCache()

	var calls atomic.Int32
	a, err := c.Get(Config{Languages: []LanguageDef{countingDef("frob", &calls)}})
	require.NoError(t, err)
	b, err := c.Get(Config{Languages: []LanguageDef{countingDef("nitz", &calls)}})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestCache_concurrentConstruction(t *testing.T) {
	t.Parallel()

	const n = 25

	c := NewCache()
	var calls atomic.Int32

	ready := make(chan struct{})
	instances := make([]*Instance, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-ready

			inst, err := c.Get(Config{
				Languages: []LanguageDef{countingDef("frob", &calls)},
			})
			assert.NoError(t, err)
			instances[i] = inst
		}(i)
	}
	close(ready)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load(),
		"construction must happen exactly once")
	for i := 1; i < n; i++ {
		assert.Same(t, instances[0], instances[i])
	}
}

func TestCache_customLanguagesPreloadBundled(t *testing.T) {
	t.Parallel()

	c := NewCache()
	var calls atomic.Int32

	inst, err := c.Get(Config{
		Languages: []LanguageDef{countingDef("frob", &calls)},
	})
	require.NoError(t, err)

	assert.True(t, inst.HasLanguage("frob"))
	// The full bundled set is unioned in eagerly.
	assert.True(t, inst.HasLanguage("go"))
	assert.True(t, inst.HasLanguage("python"))
}

func TestCache_noCustomLanguagesLoadsLazily(t *testing.T) {
	t.Parallel()

	c := NewCache()

	inst, err := c.Get(Config{})
	require.NoError(t, err)
	assert.Empty(t, inst.LoadedLanguages())
}

func TestCache_failedConstructionRetries(t *testing.T) {
	t.Parallel()

	c := NewCache()
	giveErr := errors.New("grammar store offline")

	var calls atomic.Int32
	cfg := func() Config {
		return Config{Languages: []LanguageDef{{
			Name: "frob",
			Load: func() (chroma.Lexer, error) {
				if calls.Add(1) == 1 {
					return nil, giveErr
				}
				return lexers.Get("go"), nil
			},
		}}}
	}

	_, err := c.Get(cfg())
	require.ErrorIs(t, err, giveErr)

	// The failed entry must not poison the cache.
	inst, err := c.Get(cfg())
	require.NoError(t, err)
	assert.True(t, inst.HasLanguage("frob"))
}
