// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package errs defines the categorized failure kinds shared by all engines.
// Every engine failure maps to exactly one stable kind, so calling code can
// render a precise message instead of a generic failure.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a stable failure identifier.
type Kind string

const (
	// KindUnauthorized wrong role or caller.
	KindUnauthorized Kind = "unauthorized"
	// KindInvalidState paused, wrong window phase, already claimed/revoked.
	KindInvalidState Kind = "invalid_state"
	// KindInvalidProof Merkle verification failed.
	KindInvalidProof Kind = "invalid_proof"
	// KindAlreadyClaimed one-shot claim repeated for the same round and index.
	KindAlreadyClaimed Kind = "already_claimed"
	// KindExceedsLimit allocation, contribution bound or balance exceeded.
	KindExceedsLimit Kind = "exceeds_limit"
	// KindExhausted no tier capacity, or reward pool underfunded.
	KindExhausted Kind = "exhausted"
	// KindInvalidInput zero amount, malformed argument, mismatched lengths.
	KindInvalidInput Kind = "invalid_input"
)

// Error carries a failure kind along with a human readable message.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the failure kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) error {
	return &Error{kind, fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(format string, args ...any) error {
	return New(KindUnauthorized, format, args...)
}

// InvalidState creates an invalid-state error.
func InvalidState(format string, args ...any) error {
	return New(KindInvalidState, format, args...)
}

// InvalidProof creates an invalid-proof error.
func InvalidProof(format string, args ...any) error {
	return New(KindInvalidProof, format, args...)
}

// AlreadyClaimed creates an already-claimed error.
func AlreadyClaimed(format string, args ...any) error {
	return New(KindAlreadyClaimed, format, args...)
}

// ExceedsLimit creates an exceeds-limit error.
func ExceedsLimit(format string, args ...any) error {
	return New(KindExceedsLimit, format, args...)
}

// Exhausted creates an exhausted error.
func Exhausted(format string, args ...any) error {
	return New(KindExhausted, format, args...)
}

// InvalidInput creates an invalid-input error.
func InvalidInput(format string, args ...any) error {
	return New(KindInvalidInput, format, args...)
}

// KindOf extracts the failure kind of err, or an empty kind for
// uncategorized errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
