// Package cardapi defines the error kinds surfaced by the card engine's
// operations layer to its callers (HTTP, MCP tools, CLI).
package cardapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the presence-logic and validation error kinds.
// Callers match these with errors.Is.
var (
	ErrInvalidKey        = errors.New("invalid key")
	ErrCardValidation    = errors.New("card validation failed")
	ErrCardNotFound      = errors.New("card not found")
	ErrCardAlreadyExists = errors.New("card already exists")
	ErrCardRenameSamePath = errors.New("rename target is the same as the source")
	ErrRelationType      = errors.New("relation type not allowed")
	ErrGildashNotConfigured = errors.New("symbol indexer not configured")

	// errStoreBusy is matched by message substring (see internal/retry),
	// never surfaced directly to a caller.
	errStoreBusy = errors.New("database is locked")
)

// ErrStoreBusy returns the sentinel used internally to classify retryable
// store contention. It is exported only so internal/retry and internal/store
// can share the same value without an import cycle through cardapi.
func ErrStoreBusy() error { return errStoreBusy }

// ValidationError carries the first field-order validation failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("card validation: field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrCardValidation }

// CompensationError signals that a half-completed write also failed to roll
// back: both the file mutation and the compensating store action are now in
// an indeterminate relationship and an operator should intervene.
type CompensationError struct {
	Original     error
	Compensation error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation failed after write error %q: %v", e.Original, e.Compensation)
}

func (e *CompensationError) Unwrap() []error {
	return []error{e.Original, e.Compensation}
}
