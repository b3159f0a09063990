package salish

import "golang.org/x/sync/errgroup"

// Fanout executes the per-endpoint calls of a multi-recipient broadcast. Each
// returns once every call has completed; there is no cancellation and no
// timeout, so a slow handler stalls the whole join.
type Fanout interface {
	// Each invokes fn for every i in [0, n), in any order and on any
	// goroutine, and returns when all invocations are done.
	Each(n int, fn func(i int))
}

// SequentialFanout runs the calls one after another on the caller's
// goroutine. Deterministic; meant for tests and single-threaded hosts.
func SequentialFanout() Fanout { return sequentialFanout{} }

type sequentialFanout struct{}

func (sequentialFanout) Each(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

// PooledFanout runs the calls with at most workers of them in flight at a
// time. This is the router default.
func PooledFanout(workers int) Fanout {
	if workers < 1 {
		workers = 1
	}
	return &pooledFanout{workers: workers}
}

type pooledFanout struct {
	workers int
}

func (p *pooledFanout) Each(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
