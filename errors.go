package salish

import "errors"

var (
	// ErrUnclonablePayload is the panic value raised when cloning a message
	// that carries a unicast payload. Unicast delivery must not silently
	// multiply a payload meant for exactly one recipient.
	ErrUnclonablePayload = errors.New("salish: cannot clone a message with a unicast payload")

	// ErrHandlerNotConfigured is the panic value raised when a message reaches
	// an endpoint that never had a callback registered with OnMessage.
	ErrHandlerNotConfigured = errors.New("salish: no message handler registered on endpoint")
)
