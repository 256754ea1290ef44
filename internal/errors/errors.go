// Package errors provides domain-specific error types for tungate.
//
// Every fatal condition in the setup and supervision pipeline maps to a
// coded error, so callers and tests can distinguish which stage failed
// without string matching.
package errors

import "fmt"

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeConfig indicates a malformed or missing configuration value.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeRegistry indicates the routing table registry (rt_tables)
	// could not be read or written.
	ErrCodeRegistry ErrorCode = "REGISTRY_ERROR"

	// ErrCodeRoute indicates a route or ip-rule operation failed for a
	// reason other than an idempotent already-absent/already-exists outcome.
	ErrCodeRoute ErrorCode = "ROUTE_ERROR"

	// ErrCodePacketFilter indicates the packet marking rule could not be
	// installed or removed.
	ErrCodePacketFilter ErrorCode = "PACKET_FILTER_ERROR"

	// ErrCodeAdapterSpawn indicates the tun2socks adapter process failed
	// to start.
	ErrCodeAdapterSpawn ErrorCode = "ADAPTER_SPAWN_ERROR"

	// ErrCodeAdapterCrash indicates the adapter process exited on its own
	// while it was expected to be running.
	ErrCodeAdapterCrash ErrorCode = "ADAPTER_CRASH_ERROR"
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewRegistryError creates a new routing table registry error.
func NewRegistryError(message string, cause error) *Error {
	return Wrap(ErrCodeRegistry, message, cause)
}

// NewRouteError creates a new route/rule installation error.
func NewRouteError(message string, cause error) *Error {
	return Wrap(ErrCodeRoute, message, cause)
}

// NewPacketFilterError creates a new packet marking error.
func NewPacketFilterError(message string, cause error) *Error {
	return Wrap(ErrCodePacketFilter, message, cause)
}

// NewAdapterSpawnError creates a new adapter startup error.
func NewAdapterSpawnError(message string, cause error) *Error {
	return Wrap(ErrCodeAdapterSpawn, message, cause)
}

// NewAdapterCrashError creates a new adapter crash error.
func NewAdapterCrashError(message string, cause error) *Error {
	return Wrap(ErrCodeAdapterCrash, message, cause)
}
