package core

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy of the pipeline. Callers test
// with errors.Is; producers wrap them with additional context.
var (
	// ErrInput marks a missing or malformed request field.
	ErrInput = errors.New("invalid input")

	// ErrNotFound marks an unknown image path or session identifier.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat marks an image whose extension is not accepted.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCollaborator marks a failing generation, vision, embedding or index backend.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrInvariantViolation marks an internal inconsistency. It indicates a
	// defect, never a recoverable user error.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrFinalResponseSet is returned when a final response is written twice.
	ErrFinalResponseSet = fmt.Errorf("%w: final response already set", ErrInvariantViolation)
)

// Kind classifies an error into the taxonomy above.
type Kind int

const (
	// KindUnknown is any error outside the taxonomy.
	KindUnknown Kind = iota
	// KindInput corresponds to ErrInput.
	KindInput
	// KindNotFound corresponds to ErrNotFound.
	KindNotFound
	// KindUnsupportedFormat corresponds to ErrUnsupportedFormat.
	KindUnsupportedFormat
	// KindCollaborator corresponds to ErrCollaborator.
	KindCollaborator
	// KindInvariant corresponds to ErrInvariantViolation.
	KindInvariant
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindNotFound:
		return "not_found"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindCollaborator:
		return "collaborator"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// KindOf reports the taxonomy kind of err. Invariant violations win over
// every other kind since they indicate a defect.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariant
	case errors.Is(err, ErrInput):
		return KindInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrCollaborator):
		return KindCollaborator
	default:
		return KindUnknown
	}
}
