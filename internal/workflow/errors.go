package workflow

import "errors"

var (
	// ErrInvalidTransition indicates a move the pipeline does not allow from
	// the current step.
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrNoCandidate indicates an advance with nothing generated to confirm.
	ErrNoCandidate = errors.New("no candidate to confirm")

	// ErrNotConfirmed indicates an advance without the required user choice,
	// such as confirming the strategy step with no option selected.
	ErrNotConfirmed = errors.New("candidate not confirmed")

	// ErrGenerationInFlight indicates a generation request while another one
	// is still pending for the same session.
	ErrGenerationInFlight = errors.New("generation already in flight")

	// ErrRegenerateRequired indicates an invoke on a step that already holds a
	// candidate or a failure; only Regenerate may replace it.
	ErrRegenerateRequired = errors.New("regenerate required")

	// ErrInvalidDraft indicates a draft record that breaks the pipeline's
	// field invariants and cannot be resumed.
	ErrInvalidDraft = errors.New("invalid draft")

	// ErrNoDraft indicates an operation that needs a persisted draft on a
	// session that was never synchronized.
	ErrNoDraft = errors.New("session has no persisted draft")

	// ErrFilesImmutable indicates an attempt to change files after the draft
	// has been created.
	ErrFilesImmutable = errors.New("files are immutable once the draft exists")

	// ErrInvalidPipeline indicates a malformed step list.
	ErrInvalidPipeline = errors.New("invalid pipeline")
)
