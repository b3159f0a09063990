package salish

import "fmt"

// Policy decides which endpoint receives a message when a destination has to
// pick among multiple registered candidates. It is only consulted for
// AnyEndpoint and AllEndpoints destinations.
type Policy uint8

const (
	// RoundRobin rotates through the endpoints registered for a payload type
	// in registration order. This is the default policy.
	RoundRobin Policy = iota

	// Random picks uniformly among the endpoints registered for a payload
	// type, independently on every dispatch.
	Random
)

func (p Policy) String() string {
	switch p {
	case Random:
		return "random"
	default:
		return "round-robin"
	}
}

// DestinationKind discriminates the routing modes of a Destination.
type DestinationKind uint8

const (
	// DestinationAny delivers to exactly one endpoint interested in the
	// payload type, selected by filter match or policy.
	DestinationAny DestinationKind = iota

	// DestinationBroadcast delivers a duplicate to every endpoint interested
	// in the payload type.
	DestinationBroadcast

	// DestinationEndpoint delivers to one specific endpoint by address, or
	// not at all when the address is no longer registered.
	DestinationEndpoint
)

func (k DestinationKind) String() string {
	switch k {
	case DestinationBroadcast:
		return "broadcast"
	case DestinationEndpoint:
		return "endpoint"
	default:
		return "any"
	}
}

// Destination describes how the router should deliver a message. It is an
// immutable value; build one with AnyEndpoint, AllEndpoints or ToEndpoint.
type Destination struct {
	kind   DestinationKind
	policy Policy
	addr   EndpointID
}

// AnyEndpoint routes to a single endpoint registered for the payload type,
// chosen by the given policy unless a source filter claims the message first.
func AnyEndpoint(policy Policy) Destination {
	return Destination{kind: DestinationAny, policy: policy}
}

// AllEndpoints routes duplicates of the message to every endpoint registered
// for the payload type. With exactly one interested endpoint this collapses
// to AnyEndpoint semantics under the given policy.
func AllEndpoints(policy Policy) Destination {
	return Destination{kind: DestinationBroadcast, policy: policy}
}

// ToEndpoint routes to the endpoint with the given address. An unknown or
// already closed address means the message goes nowhere.
func ToEndpoint(addr EndpointID) Destination {
	return Destination{kind: DestinationEndpoint, addr: addr}
}

// DefaultDestination is AnyEndpoint with the default policy.
func DefaultDestination() Destination {
	return AnyEndpoint(RoundRobin)
}

// Kind returns the routing mode of this destination.
func (d Destination) Kind() DestinationKind { return d.kind }

// Policy returns the selection policy. Meaningful only for DestinationAny and
// DestinationBroadcast.
func (d Destination) Policy() Policy { return d.policy }

// Addr returns the target endpoint address. Meaningful only for
// DestinationEndpoint.
func (d Destination) Addr() EndpointID { return d.addr }

func (d Destination) String() string {
	switch d.kind {
	case DestinationEndpoint:
		return fmt.Sprintf("endpoint(%d)", d.addr)
	default:
		return fmt.Sprintf("%s(%s)", d.kind, d.policy)
	}
}
