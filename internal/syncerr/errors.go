// Package syncerr defines the shared error taxonomy for the sync engine.
// Sentinel values are matched with errors.Is; Classify folds any error into
// the class the orchestrator acts on.
package syncerr

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrNotFound means a remote lookup matched nothing. Restore uses it to
	// decide "initial backup" vs "gap-fill".
	ErrNotFound = errors.New("not found")

	// ErrConflict means a unique-constraint violation; a singleton push
	// retries as update-by-lookup.
	ErrConflict = errors.New("conflict")

	// ErrPolicyDenied means the remote rejected the operation on access
	// control grounds. The row stays dirty.
	ErrPolicyDenied = errors.New("policy denied")

	// ErrIdentityRevoked means the owning identity no longer exists remotely.
	// Fatal for the pass; triggers local sign-out, never a retry.
	ErrIdentityRevoked = errors.New("owner identity no longer exists remotely")

	// ErrTransient covers network failures, timeouts and remote
	// unavailability. Eligible for backoff retry; if persistent the pass is
	// deferred rather than failed.
	ErrTransient = errors.New("transient failure")

	// ErrValidation means the row is malformed. Skipped and reported, never
	// retried blindly.
	ErrValidation = errors.New("validation failed")
)

// Class is the coarse error class the orchestrator switches on.
type Class int

const (
	ClassUnknown Class = iota
	ClassNotFound
	ClassConflict
	ClassPolicyDenied
	ClassIdentityRevoked
	ClassTransient
	ClassValidation
)

func (c Class) String() string {
	switch c {
	case ClassNotFound:
		return "not_found"
	case ClassConflict:
		return "conflict"
	case ClassPolicyDenied:
		return "policy_denied"
	case ClassIdentityRevoked:
		return "identity_revoked"
	case ClassTransient:
		return "transient"
	case ClassValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Classify maps err to its Class. Errors not wrapped in one of the sentinels
// are probed for network/timeout shapes, which count as transient; anything
// else is unknown.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassUnknown
	case errors.Is(err, ErrIdentityRevoked):
		return ClassIdentityRevoked
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrConflict):
		return ClassConflict
	case errors.Is(err, ErrPolicyDenied):
		return ClassPolicyDenied
	case errors.Is(err, ErrValidation):
		return ClassValidation
	case errors.Is(err, ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}

	return ClassUnknown
}

// Retryable reports whether an operation failing with err may be retried
// later without operator intervention.
func Retryable(err error) bool {
	return Classify(err) == ClassTransient
}
