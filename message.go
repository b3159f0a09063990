package salish

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/casualjim/salish/pkg/slogx"
)

// Cloneable marks payloads that may be duplicated. Only messages carrying a
// Cloneable payload can be broadcast to more than one endpoint.
type Cloneable interface {
	// ClonePayload returns a copy of the payload that is safe to hand to
	// another endpoint while the original is in flight.
	ClonePayload() any
}

// Message wraps a payload of any type together with a destination and an
// optional source tag. Payloads travel type-erased; the router recovers the
// concrete type through the registered endpoint's adapter.
//
// Source tags must be comparable values: they are used as set keys by
// SourceFilter. Payloads and handler return values are expected to be safe to
// share across goroutines.
type Message struct {
	dest        Destination
	source      any
	payload     any
	payloadType reflect.Type
	cloneable   bool
	duplicate   bool
}

// Unicast creates a message destined to any single endpoint registered for P,
// selected with the default policy.
func Unicast[P any](payload P) *Message {
	return NewMessage(DefaultDestination(), payload)
}

// Broadcast creates a message destined to every endpoint registered for P.
// The payload must be cloneable so each endpoint receives its own duplicate.
func Broadcast[P Cloneable](payload P) *Message {
	return NewMessage(AllEndpoints(RoundRobin), payload)
}

// NewMessage creates a message with an explicit destination. The payload type
// used for routing is the static type P, so interface-typed payloads route to
// endpoints registered for the interface rather than the concrete value.
func NewMessage[P any](dest Destination, payload P) *Message {
	_, cloneable := any(payload).(Cloneable)
	return &Message{
		dest:        dest,
		payload:     payload,
		payloadType: typeOf[P](),
		cloneable:   cloneable,
	}
}

// WithSource tags the message with its origin. The tag must be a comparable
// value; endpoints can claim tagged messages ahead of policy selection with a
// SourceFilter.
func (m *Message) WithSource(source any) *Message {
	m.source = source
	return m
}

// WithDestination overrides the destination the message was constructed with.
func (m *Message) WithDestination(dest Destination) *Message {
	m.dest = dest
	return m
}

// Dest returns the destination of this message.
func (m *Message) Dest() Destination { return m.dest }

// Source returns the source tag, or nil when the message carries none.
func (m *Message) Source() any { return m.source }

// PayloadType returns the routing identity of the payload: the static type
// the message was constructed with.
func (m *Message) PayloadType() reflect.Type { return m.payloadType }

// IsDuplicate reports whether this message is a broadcast duplicate rather
// than the originally published envelope.
func (m *Message) IsDuplicate() bool { return m.duplicate }

// Clone duplicates the message for broadcast delivery. It panics with
// ErrUnclonablePayload when the payload is unicast-only; producing a silently
// shared copy would break the single-recipient contract.
func (m *Message) Clone() *Message {
	c, ok := m.payload.(Cloneable)
	if !ok {
		panic(ErrUnclonablePayload)
	}
	return &Message{
		dest:        m.dest,
		source:      m.source,
		payload:     c.ClonePayload(),
		payloadType: m.payloadType,
		cloneable:   true,
		duplicate:   true,
	}
}

func (m *Message) String() string {
	if m.duplicate {
		return fmt.Sprintf("Message{dest: %s, type: %s, payload: %v, duplicate: true}", m.dest, m.payloadType, m.payload)
	}
	return fmt.Sprintf("Message{dest: %s, type: %s, payload: %v}", m.dest, m.payloadType, m.payload)
}

// Is reports whether the message payload was published as type T.
func Is[T any](m *Message) bool {
	return m.payloadType == typeOf[T]()
}

// As extracts the payload as type T. A mismatch should be unreachable for
// messages routed through the type-indexed registry, so it is logged as a
// warning and reported as a decline rather than crashing the dispatch path.
func As[T any](m *Message) (T, bool) {
	payload, ok := m.payload.(T)
	if !ok {
		slog.Warn("message payload type mismatch",
			slogx.Type("want", typeOf[T]()),
			slogx.Type("got", m.payloadType),
		)
		var zero T
		return zero, false
	}
	return payload, true
}

// typeOf returns the reflect.Type of T itself, not of a value of T. This
// keeps interface types distinct from their implementations.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
