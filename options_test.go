package fenceline

import (
	"testing"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenceline/fenceline/engine"
	"github.com/fenceline/fenceline/internal/ptr"
)

func TestOptions_normalized(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		o := Options{}.normalized()
		assert.Equal(t, []ThemeInput{{Name: DefaultTheme}}, o.Themes)
		assert.Equal(t, DefaultTabWidth, *o.TabWidth)
	})

	t.Run("deprecated theme folds in first", func(t *testing.T) {
		t.Parallel()

		o := Options{
			Theme:  &ThemeInput{Name: "github"},
			Themes: []ThemeInput{{Name: "github-dark"}},
		}.normalized()

		assert.Nil(t, o.Theme)
		assert.Equal(t, []ThemeInput{
			{Name: "github"},
			{Name: "github-dark"},
		}, o.Themes)
	})

	t.Run("explicit tab width kept", func(t *testing.T) {
		t.Parallel()

		o := Options{TabWidth: ptr.Of(0)}.normalized()
		assert.Equal(t, 0, *o.TabWidth)
	})
}

func TestThemeInput_resolve(t *testing.T) {
	t.Parallel()

	t.Run("by name", func(t *testing.T) {
		t.Parallel()

		th, err := ThemeInput{Name: "github"}.resolve()
		require.NoError(t, err)
		assert.Equal(t, "github", th.Name)
		assert.NotEmpty(t, th.Rules)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()

		_, err := ThemeInput{Name: "no-such-style"}.resolve()
		assert.ErrorContains(t, err, "no-such-style")
	})

	t.Run("raw content passes through", func(t *testing.T) {
		t.Parallel()

		give := &engine.Theme{Name: "mine", Background: "#000"}
		th, err := ThemeInput{Theme: give}.resolve()
		require.NoError(t, err)
		assert.Same(t, give, th)
	})

	t.Run("prebuilt style", func(t *testing.T) {
		t.Parallel()

		th, err := ThemeInput{Style: styles.Get("github")}.resolve()
		require.NoError(t, err)
		assert.Equal(t, "github", th.Name)
		assert.NotEmpty(t, th.Rules)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		_, err := ThemeInput{}.resolve()
		assert.Error(t, err)
	})
}

func TestThemeFromStyle_deterministic(t *testing.T) {
	t.Parallel()

	s := styles.Get("github")
	a := themeFromStyle("github", s)
	b := themeFromStyle("github", s)

	// Equal content means equal cache keys, object identity aside.
	assert.Equal(t, a.Rules, b.Rules)
	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestThemeFromStyle_roundTripsThroughEngine(t *testing.T) {
	t.Parallel()

	inst, err := engine.NewCache().Get(engine.Config{})
	require.NoError(t, err)

	th := themeFromStyle("github", styles.Get("github"))
	key, err := inst.EnsureTheme(th)
	require.NoError(t, err)

	style, ok := inst.Theme(key)
	require.True(t, ok, "converted theme content must compile")
	assert.NotEqual(t, chroma.StyleEntry{}, style.Get(chroma.Keyword))
}
