package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_memoizes(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		got, err := g.Do("answer", func() (int, error) {
			calls.Add(1)
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	}

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 1, g.Len())
}

func TestGroup_distinctKeys(t *testing.T) {
	t.Parallel()

	var g Group[string, string]

	a, err := g.Do("a", func() (string, error) { return "A", nil })
	require.NoError(t, err)
	b, err := g.Do("b", func() (string, error) { return "B", nil })
	require.NoError(t, err)

	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
	assert.Equal(t, 2, g.Len())
}

func TestGroup_concurrent(t *testing.T) {
	t.Parallel()

	const n = 50

	var g Group[string, *int]
	var calls atomic.Int32

	ready := make(chan struct{})
	results := make([]*int, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-ready

			got, err := g.Do("k", func() (*int, error) {
				calls.Add(1)
				v := 7
				return &v, nil
			})
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	close(ready)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load(),
		"concurrent callers must share one execution")
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestGroup_failureShared(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	giveErr := errors.New("great sadness")
	var calls atomic.Int32

	for i := 0; i < 2; i++ {
		_, err := g.Do("k", func() (int, error) {
			calls.Add(1)
			return 0, giveErr
		})
		assert.ErrorIs(t, err, giveErr)
	}

	// Failures stay cached unless RetryFailed is set.
	assert.EqualValues(t, 1, calls.Load())
}

func TestGroup_retryFailed(t *testing.T) {
	t.Parallel()

	g := Group[string, int]{RetryFailed: true}
	var calls atomic.Int32

	_, err := g.Do("k", func() (int, error) {
		calls.Add(1)
		return 0, errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 0, g.Len())

	got, err := g.Do("k", func() (int, error) {
		calls.Add(1)
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.EqualValues(t, 2, calls.Load())
}
