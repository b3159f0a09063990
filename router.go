package salish

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/salish/pkg/slogx"
	"github.com/fogfish/opts"
)

const defaultPoolSize = 4

type routerConfig struct {
	poolSize int
	fanout   Fanout
	logger   *slog.Logger
}

var (
	// PoolSize sets the number of workers used for concurrent broadcast
	// fan-out. Ignored when a FanoutStrategy is provided.
	PoolSize = opts.ForName[routerConfig, int]("poolSize")

	// FanoutStrategy swaps the executor used for multi-recipient broadcast,
	// e.g. SequentialFanout for deterministic tests.
	FanoutStrategy = opts.ForName[routerConfig, Fanout]("fanout")

	// Logger sets the logger the router emits diagnostics on. Defaults to
	// slog.Default.
	Logger = opts.ForName[routerConfig, *slog.Logger]("logger")
)

// typeHandler is the registry entry for one payload type: the handles
// interested in it, in registration order, and the rotating cursor consumed
// by the round-robin policy.
type typeHandler[R any] struct {
	handles []*endpointHandle[R]
	next    int
}

// Router is the registry and dispatch engine of the bus. It maps payload
// type identities to interested endpoints and endpoint addresses to their
// type-erased handles, and routes messages per their destination.
//
// A router is safe for concurrent use. All endpoints on one router share the
// return type R; results of a dispatch are collected into a []R.
type Router[R any] struct {
	// endpoints is the identity map, EndpointID -> handle.
	endpoints *haxmap.Map[EndpointID, *endpointHandle[R]]

	// mu guards typeHandlers and statics. Round-robin cursor advancement
	// mutates the entry, so selection takes the write lock.
	mu           sync.RWMutex
	typeHandlers map[reflect.Type]*typeHandler[R]

	// statics are endpoints retained by the router itself for its whole
	// lifetime. They have no owner and cannot be deregistered.
	statics map[EndpointID]struct{}

	nextID atomic.Uint64
	fanout Fanout
	log    *slog.Logger
}

// NewRouter creates a router for handlers returning R. By default broadcast
// fan-out runs on a pool of four workers.
func NewRouter[R any](options ...opts.Option[routerConfig]) *Router[R] {
	cfg := routerConfig{poolSize: defaultPoolSize}
	if err := opts.Apply(&cfg, options); err != nil {
		panic(err)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.fanout == nil {
		cfg.fanout = PooledFanout(cfg.poolSize)
	}
	return &Router[R]{
		endpoints:    haxmap.New[EndpointID, *endpointHandle[R]](),
		typeHandlers: make(map[reflect.Type]*typeHandler[R]),
		statics:      make(map[EndpointID]struct{}),
		fanout:       cfg.fanout,
		log:          cfg.logger.With(slogx.LoggerName("salish.router")),
	}
}

// StaticEndpoint registers a callback for payload type M that the router
// retains for its own lifetime. Static endpoints have no owner to close and
// cannot be deregistered; the returned address can still be used with
// ToEndpoint.
func StaticEndpoint[M, R any](r *Router[R], fn func(source any, msg M) R) EndpointID {
	inner := &endpointInner[M, R]{}
	inner.setCallback(fn)
	id := r.nextEndpointID()
	r.addHandle(typeOf[M](), newEndpointHandle(id, inner))

	r.mu.Lock()
	r.statics[id] = struct{}{}
	r.mu.Unlock()

	r.log.Debug("static endpoint added", slogx.Endpoint(id), slogx.Type("payload", typeOf[M]()))
	return id
}

// nextEndpointID allocates a process-stable endpoint address. The counter is
// owned by the router, so separate routers never collide and tests are
// deterministic.
func (r *Router[R]) nextEndpointID() EndpointID {
	return r.nextID.Add(1)
}

// addHandle inserts a handle into both the identity map and the type map.
func (r *Router[R]) addHandle(typ reflect.Type, h *endpointHandle[R]) {
	r.endpoints.Set(h.id, h)

	r.mu.Lock()
	th := r.typeHandlers[typ]
	if th == nil {
		th = &typeHandler[R]{}
		r.typeHandlers[typ] = th
	}
	th.handles = append(th.handles, h)
	r.mu.Unlock()

	r.log.Debug("endpoint added", slogx.Endpoint(h.id), slogx.Type("payload", typ))
}

// RemoveEndpoint deregisters the endpoint with the given address, purging it
// from the identity map and from every type entry. A type entry left without
// handles is removed entirely so stale payload types do not linger. Static
// endpoints are never removed.
func (r *Router[R]) RemoveEndpoint(id EndpointID) {
	r.mu.Lock()
	if _, ok := r.statics[id]; ok {
		r.mu.Unlock()
		r.log.Debug("ignoring removal of static endpoint", slogx.Endpoint(id))
		return
	}
	for typ, th := range r.typeHandlers {
		kept := th.handles[:0]
		for _, h := range th.handles {
			if h.id != id {
				kept = append(kept, h)
			}
		}
		th.handles = kept
		if len(th.handles) == 0 {
			delete(r.typeHandlers, typ)
		}
	}
	r.mu.Unlock()

	r.endpoints.Del(id)
	r.log.Debug("endpoint removed", slogx.Endpoint(id))
}

// NumEndpoints returns the number of endpoints registered with the router.
func (r *Router[R]) NumEndpoints() int {
	return int(r.endpoints.Len())
}

// NumHandlers returns the total number of handles across all payload types.
func (r *Router[R]) NumHandlers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int
	for _, th := range r.typeHandlers {
		n += len(th.handles)
	}
	return n
}

// HandleMessage routes a message to registered endpoints per its destination
// and returns the collected results. The second return is false when nobody
// received the message: no endpoint is registered for the payload type, the
// addressed endpoint no longer exists, or every reached handler declined.
// Absence of a recipient is expected and never an error.
func (r *Router[R]) HandleMessage(m *Message) ([]R, bool) {
	r.log.Debug("dispatching", slogx.Stringer("message", m))
	switch m.Dest().Kind() {
	case DestinationBroadcast:
		return r.dispatchBroadcast(m, m.Dest().Policy())
	case DestinationEndpoint:
		h, ok := r.endpoints.Get(m.Dest().Addr())
		if !ok {
			r.log.Debug("no endpoint at address", slogx.Endpoint(m.Dest().Addr()))
			return nil, false
		}
		res, ok := h.dispatch(m)
		if !ok {
			return nil, false
		}
		return []R{res}, true
	default:
		return r.dispatchAny(m, m.Dest().Policy())
	}
}

// dispatchAny delivers to exactly one interested endpoint. A source-tagged
// message goes to the first handle whose filter matches, in registration
// order, bypassing the policy; otherwise the policy selects. Filters and the
// handler itself run outside the registry lock, so a callback may publish
// back into the router without deadlocking.
func (r *Router[R]) dispatchAny(m *Message, policy Policy) ([]R, bool) {
	r.mu.RLock()
	th := r.typeHandlers[m.PayloadType()]
	if th == nil || len(th.handles) == 0 {
		r.mu.RUnlock()
		r.log.Debug("no handlers for payload type", slogx.Type("payload", m.PayloadType()))
		return nil, false
	}
	handles := make([]*endpointHandle[R], len(th.handles))
	copy(handles, th.handles)
	r.mu.RUnlock()

	var h *endpointHandle[R]
	if m.Source() != nil {
		for _, cand := range handles {
			if cand.matches(m) {
				h = cand
				break
			}
		}
	}
	if h == nil {
		switch policy {
		case Random:
			h = handles[rand.IntN(len(handles))]
		default:
			// Cursor advancement needs exclusive access to the type entry.
			r.mu.Lock()
			h = handles[th.next%len(handles)]
			th.next++
			r.mu.Unlock()
		}
	}

	res, ok := h.dispatch(m)
	if !ok {
		return nil, false
	}
	return []R{res}, true
}

// dispatchBroadcast delivers a duplicate of the message to every interested
// endpoint concurrently and joins before returning. A single interested
// endpoint degrades to dispatchAny. Result order is unspecified. Each call
// runs behind a recover boundary: a panicking handler is logged and recorded
// as a declined result instead of aborting the rest of the fan-out.
func (r *Router[R]) dispatchBroadcast(m *Message, policy Policy) ([]R, bool) {
	r.mu.RLock()
	th := r.typeHandlers[m.PayloadType()]
	if th == nil || len(th.handles) == 0 {
		r.mu.RUnlock()
		r.log.Debug("no handlers for payload type", slogx.Type("payload", m.PayloadType()))
		return nil, false
	}
	if len(th.handles) == 1 {
		r.mu.RUnlock()
		return r.dispatchAny(m, policy)
	}
	handles := make([]*endpointHandle[R], len(th.handles))
	copy(handles, th.handles)
	r.mu.RUnlock()

	// Clone before fanning out so an unclonable payload fails in the caller,
	// where it is a programmer error, not inside a worker.
	clones := make([]*Message, len(handles))
	for i := range handles {
		clones[i] = m.Clone()
	}

	results := make([]R, len(handles))
	delivered := make([]bool, len(handles))
	r.fanout.Each(len(handles), func(i int) {
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("handler panicked during broadcast",
					slogx.Endpoint(handles[i].id),
					slog.Any("panic", p),
				)
			}
		}()
		results[i], delivered[i] = handles[i].dispatch(clones[i])
	})

	collected := make([]R, 0, len(handles))
	for i, ok := range delivered {
		if ok {
			collected = append(collected, results[i])
		}
	}
	if len(collected) == 0 {
		return nil, false
	}
	return collected, true
}

func (r *Router[R]) String() string {
	return fmt.Sprintf("Router{endpoints: %d, handlers: %d}", r.NumEndpoints(), r.NumHandlers())
}
