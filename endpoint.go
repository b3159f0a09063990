package salish

import (
	"fmt"
	"sync"
)

// EndpointID is the stable address of an endpoint. IDs are allocated by the
// owning router, increase monotonically and are never reused.
type EndpointID = uint64

// Endpoint is the owner-facing registration of one consumer's interest in
// payload type M on a router returning R. It is split from its shared inner
// state so the router's type-erased adapter can keep serving in-flight
// dispatches while the owner is closing; closing the endpoint is what removes
// it from the router.
//
// Go has no destructors: callers must Close an endpoint they no longer want.
// A skipped Close leaks the registration until the router itself is
// discarded.
type Endpoint[M, R any] struct {
	id        EndpointID
	router    *Router[R]
	inner     *endpointInner[M, R]
	closeOnce sync.Once
}

// NewEndpoint creates an endpoint for payload type M, registers it with the
// router and returns it to the caller. The registration is visible to
// dispatch before NewEndpoint returns. Attach a callback with OnMessage
// before any message reaches the endpoint.
func NewEndpoint[M, R any](router *Router[R]) *Endpoint[M, R] {
	ep := &Endpoint[M, R]{
		id:     router.nextEndpointID(),
		router: router,
		inner:  &endpointInner[M, R]{},
	}
	router.addHandle(typeOf[M](), newEndpointHandle(ep.id, ep.inner))
	return ep
}

// OnMessage registers the callback invoked for every message delivered to
// this endpoint, replacing any previous callback. The source argument is nil
// for untagged messages. Returns the endpoint for chaining.
func (e *Endpoint[M, R]) OnMessage(fn func(source any, msg M) R) *Endpoint[M, R] {
	e.inner.setCallback(fn)
	return e
}

// WithFilter appends a filter to this endpoint and returns the endpoint for
// chaining. A matching filter claims source-tagged messages ahead of policy
// selection.
func (e *Endpoint[M, R]) WithFilter(f Filter) *Endpoint[M, R] {
	e.inner.addFilter(f)
	return e
}

// Addr returns the stable address of this endpoint, usable with ToEndpoint.
func (e *Endpoint[M, R]) Addr() EndpointID { return e.id }

// Close deregisters the endpoint from its router. It is safe to call more
// than once. Dispatches already in flight complete against the shared inner
// state.
func (e *Endpoint[M, R]) Close() {
	e.closeOnce.Do(func() {
		if e.router != nil {
			e.router.RemoveEndpoint(e.id)
		}
	})
}

func (e *Endpoint[M, R]) String() string {
	return fmt.Sprintf("Endpoint{id: %d, type: %s}", e.id, typeOf[M]())
}

// endpointInner holds the callback and filters shared between the owner
// shell and the router's type-erased handle. Its lock keeps OnMessage and
// WithFilter from racing with an in-flight dispatch.
type endpointInner[M, R any] struct {
	mu       sync.Mutex
	callback func(source any, msg M) R
	filters  []Filter
}

func (i *endpointInner[M, R]) setCallback(fn func(source any, msg M) R) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.callback = fn
}

func (i *endpointInner[M, R]) addFilter(f Filter) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.filters = append(i.filters, f)
}

// onMessage invokes the registered callback under the inner lock. An
// endpoint without a callback should never have been registered, so this
// panics with ErrHandlerNotConfigured instead of dropping the message.
func (i *endpointInner[M, R]) onMessage(source any, msg M) R {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.callback == nil {
		panic(ErrHandlerNotConfigured)
	}
	return i.callback(source, msg)
}

func (i *endpointInner[M, R]) matches(m *Message) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, f := range i.filters {
		if f.Matches(m) {
			return true
		}
	}
	return false
}
