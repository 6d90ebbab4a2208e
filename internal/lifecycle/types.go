package lifecycle

import "errors"

// AcceptOutcome classifies what a webhook delivery did.
type AcceptOutcome string

const (
	// AcceptStarted means a new record was created and tasks were dispatched.
	AcceptStarted AcceptOutcome = "started"
	// AcceptAlreadyInProgress means a record exists and is still processing.
	AcceptAlreadyInProgress AcceptOutcome = "already_in_progress"
	// AcceptAlreadyTerminal means a record exists with a terminal status.
	AcceptAlreadyTerminal AcceptOutcome = "already_terminal"
)

// AcceptResult reports the outcome of one webhook delivery along with the
// record's current status.
type AcceptResult struct {
	Outcome       AcceptOutcome
	Status        string
	CorrelationID string
}

// Errors surfaced to callers as typed conditions.
var (
	// ErrNotFound: no record exists for the submission id.
	ErrNotFound = errors.New("submission not found")

	// ErrInProgress: the operation requires a terminal record but the
	// submission is still processing.
	ErrInProgress = errors.New("submission still processing")

	// ErrUnknownVariant: the named variant is not a configured prompt variant.
	ErrUnknownVariant = errors.New("unknown variant")
)
