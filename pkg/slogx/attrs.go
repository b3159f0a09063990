// Package slogx provides small helpers for building log/slog attributes used
// across the salish packages.
package slogx

import (
	"fmt"
	"log/slog"
	"reflect"
)

// KeyLoggerName is the attribute key identifying the emitting component.
const KeyLoggerName = "logger"

// LoggerName returns an attribute naming the component a log record
// originates from.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Error returns an attribute with key "error" carrying the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns an attribute with the string representation of any
// fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Type returns an attribute with the name of a reflect.Type, used for
// payload type diagnostics.
func Type(key string, t reflect.Type) slog.Attr {
	if t == nil {
		return slog.String(key, "<nil>")
	}
	return slog.String(key, t.String())
}

// Endpoint returns an attribute carrying an endpoint address.
func Endpoint(id uint64) slog.Attr {
	return slog.Uint64("endpoint", id)
}
