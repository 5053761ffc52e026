package orchestrator

import "errors"

// Error kinds from spec §7. Callers classify an error with errors.Is
// against these sentinels; concrete errors wrap one of them with %w so
// context survives.
var (
	// ErrNotFound is benign: the caller treats the entry/service as absent.
	ErrNotFound = errors.New("orchestrator: not found")

	// ErrValidation means a config or label failed to parse. It is fatal
	// to the single object being parsed, never to the reconcile loop.
	ErrValidation = errors.New("orchestrator: validation failed")

	// ErrUnavailable means the orchestrator API call itself failed
	// (network, auth, 5xx). The current reconcile pass aborts and the
	// next tick retries.
	ErrUnavailable = errors.New("orchestrator: unavailable")

	// ErrACMEFailure means an ACME order step failed. The order aborts
	// without partial writes; the next observe tick retries.
	ErrACMEFailure = errors.New("acme: order failed")

	// ErrInvariant means a data-model invariant (I2 pair consistency, I7
	// DH freshness, ...) was violated. The affected pass is skipped and
	// logged; it is never treated as fatal to the process.
	ErrInvariant = errors.New("orchestrator: invariant violated")
)

// NotFound reports whether err represents a benign "absent" condition.
func NotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Unavailable reports whether err should abort the current pass for a retry.
func Unavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
