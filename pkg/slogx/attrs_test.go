package slogx

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	attr := Error(errors.New("kaboom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "kaboom", attr.Value.String())
}

func TestLoggerName(t *testing.T) {
	attr := LoggerName("salish.router")
	assert.Equal(t, KeyLoggerName, attr.Key)
	assert.Equal(t, "salish.router", attr.Value.String())
}

func TestType(t *testing.T) {
	attr := Type("payload", reflect.TypeOf(42))
	assert.Equal(t, "payload", attr.Key)
	assert.Equal(t, "int", attr.Value.String())

	assert.Equal(t, "<nil>", Type("payload", nil).Value.String())
}

func TestEndpoint(t *testing.T) {
	attr := Endpoint(42)
	assert.Equal(t, "endpoint", attr.Key)
	assert.EqualValues(t, 42, attr.Value.Uint64())
}
