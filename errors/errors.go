// Package errors provides error handling for the Ember client.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Sentinel errors for the client's own failure taxonomy
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrEntityNotFound) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the Ember client's failure taxonomy.
// Use these with errors.Is() for type-safe error checking and wrap them with
// errors.Wrap() to add context while preserving the type.
var (
	// ErrEntityNotFound indicates the update-by-modify path found no local
	// snapshot of the entity, neither pending nor observed
	ErrEntityNotFound = New("entity not found")

	// ErrEncodingFailed indicates an entity could not be flattened into
	// field-value form
	ErrEncodingFailed = New("entity encoding failed")

	// ErrTransportClosed indicates the transport has been shut down and
	// accepts no further transactions
	ErrTransportClosed = New("transport closed")

	// ErrNotConnected indicates the transport has no live connection to the
	// server and cannot deliver a transaction
	ErrNotConnected = New("not connected")

	// ErrAckTimeout indicates the server did not acknowledge a transaction
	// in time
	ErrAckTimeout = New("transaction acknowledgement timed out")

	// ErrDuplicateApp indicates a client for the app id is already registered
	ErrDuplicateApp = New("app already registered")
)

// IsEntityNotFound checks if an error is or wraps ErrEntityNotFound
func IsEntityNotFound(err error) bool {
	return err != nil && Is(err, ErrEntityNotFound)
}

// IsEncodingFailed checks if an error is or wraps ErrEncodingFailed
func IsEncodingFailed(err error) bool {
	return err != nil && Is(err, ErrEncodingFailed)
}

// NewEntityNotFound creates a not-found error carrying the namespace and id
func NewEntityNotFound(namespace, id string) error {
	return Wrapf(ErrEntityNotFound, "%s/%s", namespace, id)
}

// WrapEncodingFailed wraps a serialization error, preserving the sentinel so
// callers can distinguish encoding failures from transport failures
func WrapEncodingFailed(err error, context string) error {
	return Wrap(Wrap(ErrEncodingFailed, err.Error()), context)
}
