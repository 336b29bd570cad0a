// Package memo provides keyed memoization of expensive work
// shared across concurrent callers.
//
// The first caller for a key installs a promise and runs the work;
// every other caller for that key blocks on the promise and observes
// the same settled result. Entries are never evicted, except
// optionally on failure.
package memo

import "sync"

// promise is a unit of work that settles exactly once.
type promise[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Group memoizes units of work by key.
//
// The zero value is ready to use.
// A Group must not be copied after first use.
type Group[K comparable, V any] struct {
	// RetryFailed drops failed work from the group
	// so a later call with the same key may retry it.
	// Callers that joined while the work was in flight
	// still observe the failure.
	RetryFailed bool

	mu sync.Mutex
	ps map[K]*promise[V]
}

// Do returns the result of the work memoized under key,
// invoking fn if this is the first request for that key.
//
// fn runs on the calling goroutine.
// Concurrent calls with the same key invoke fn exactly once;
// all of them observe the same result or the same failure.
func (g *Group[K, V]) Do(key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if p, ok := g.ps[key]; ok {
		g.mu.Unlock()
		<-p.done
		return p.val, p.err
	}

	// Install the promise before running fn so that racing callers
	// join it instead of starting duplicate work.
	p := &promise[V]{done: make(chan struct{})}
	if g.ps == nil {
		g.ps = make(map[K]*promise[V])
	}
	g.ps[key] = p
	g.mu.Unlock()

	p.val, p.err = fn()
	if p.err != nil && g.RetryFailed {
		g.mu.Lock()
		delete(g.ps, key)
		g.mu.Unlock()
	}
	close(p.done)
	return p.val, p.err
}

// Len reports the number of memoized entries.
func (g *Group[K, V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ps)
}
