package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the orchestration and ledger layers. Handlers map these
// onto HTTP statuses; callers are expected to branch with errors.Is.
var (
	// ErrAccessDenied is returned when a paid-only operation is attempted
	// without an active paid subscription.
	ErrAccessDenied = errors.New("access denied: active subscription required")

	// ErrSectionLocked is returned when a section is opened before its
	// predecessor has been completed.
	ErrSectionLocked = errors.New("section locked: complete the previous section first")

	// ErrQuotaExhausted is returned when a revision is requested with zero
	// revisions remaining. Callers should route to the top-up purchase flow.
	ErrQuotaExhausted = errors.New("revision quota exhausted")

	// ErrGenerationInFlight is returned when a generation or revision is
	// already running for the same session and section.
	ErrGenerationInFlight = errors.New("generation already in progress")

	// ErrNotFound is returned by the store when a requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError describes a rejected user input. It is recovered locally
// and surfaced as inline form feedback; no state is mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
