package salish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intPayload int

type clonePayload struct {
	values []int
}

func (c clonePayload) ClonePayload() any {
	return clonePayload{values: append([]int(nil), c.values...)}
}

func TestUnicastDefaults(t *testing.T) {
	msg := Unicast(intPayload(42))

	assert.Equal(t, DestinationAny, msg.Dest().Kind())
	assert.Equal(t, RoundRobin, msg.Dest().Policy())
	assert.False(t, msg.IsDuplicate())
	assert.Nil(t, msg.Source())
	assert.Equal(t, typeOf[intPayload](), msg.PayloadType())
}

func TestBroadcastDefaults(t *testing.T) {
	msg := Broadcast(clonePayload{values: []int{1}})

	assert.Equal(t, DestinationBroadcast, msg.Dest().Kind())
	assert.False(t, msg.IsDuplicate())
}

func TestIsAndAs(t *testing.T) {
	msg := Unicast(intPayload(7))

	assert.True(t, Is[intPayload](msg))
	assert.False(t, Is[string](msg))

	payload, ok := As[intPayload](msg)
	require.True(t, ok)
	assert.Equal(t, intPayload(7), payload)

	wrong, ok := As[string](msg)
	assert.False(t, ok)
	assert.Empty(t, wrong)
}

func TestWithSourceAndDestination(t *testing.T) {
	msg := Unicast(intPayload(1)).
		WithSource("sensor-1").
		WithDestination(ToEndpoint(99))

	assert.Equal(t, "sensor-1", msg.Source())
	assert.Equal(t, DestinationEndpoint, msg.Dest().Kind())
	assert.Equal(t, EndpointID(99), msg.Dest().Addr())
}

func TestCloneUnicastPanics(t *testing.T) {
	msg := Unicast(intPayload(1))
	require.PanicsWithValue(t, ErrUnclonablePayload, func() {
		msg.Clone()
	})
}

func TestCloneBroadcast(t *testing.T) {
	original := clonePayload{values: []int{1, 2, 3}}
	msg := Broadcast(original).WithSource("sensor-2")

	dup := msg.Clone()
	assert.True(t, dup.IsDuplicate())
	assert.False(t, msg.IsDuplicate())
	assert.Equal(t, msg.Dest(), dup.Dest())
	assert.Equal(t, msg.Source(), dup.Source())
	assert.Equal(t, msg.PayloadType(), dup.PayloadType())

	// The duplicate owns its own copy of the payload.
	payload, ok := As[clonePayload](dup)
	require.True(t, ok)
	payload.values[0] = 99
	assert.Equal(t, []int{1, 2, 3}, original.values)
}

func TestInterfacePayloadIdentity(t *testing.T) {
	// A message published under an interface type routes by the interface,
	// not by the concrete value it carries.
	msg := NewMessage[Filter](DefaultDestination(), NewSourceFilter("a"))

	assert.Equal(t, typeOf[Filter](), msg.PayloadType())
	assert.True(t, Is[Filter](msg))
	assert.False(t, Is[*SourceFilter](msg))

	payload, ok := As[Filter](msg)
	require.True(t, ok)
	assert.NotNil(t, payload)
}

func TestMessageString(t *testing.T) {
	msg := Broadcast(clonePayload{values: []int{1}})
	assert.NotContains(t, msg.String(), "duplicate")
	assert.Contains(t, msg.Clone().String(), "duplicate: true")
}

func TestDestinationString(t *testing.T) {
	assert.Equal(t, "any(round-robin)", AnyEndpoint(RoundRobin).String())
	assert.Equal(t, "broadcast(random)", AllEndpoints(Random).String())
	assert.Equal(t, "endpoint(7)", ToEndpoint(7).String())
}
