package salish

// endpointHandle is the type-erased adapter the router stores for an
// endpoint. Its closures capture the endpoint's shared inner state, so a
// handle stays callable even while the owner shell is mid-Close. This is the
// only place erased envelopes meet concrete payload types.
type endpointHandle[R any] struct {
	id EndpointID

	// dispatch type-checks the envelope against the endpoint's payload type,
	// extracts the concrete payload and invokes the callback under the inner
	// lock. A mismatched payload declines instead of crashing.
	dispatch func(m *Message) (R, bool)

	// matches evaluates the endpoint's filters under the inner lock.
	matches func(m *Message) bool
}

func newEndpointHandle[M, R any](id EndpointID, inner *endpointInner[M, R]) *endpointHandle[R] {
	return &endpointHandle[R]{
		id: id,
		dispatch: func(m *Message) (R, bool) {
			payload, ok := As[M](m)
			if !ok {
				var zero R
				return zero, false
			}
			return inner.onMessage(m.Source(), payload), true
		},
		matches: inner.matches,
	}
}
