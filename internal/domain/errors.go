package domain

import (
	"errors"
	"fmt"
)

// FailKind classifies a terminal navigation failure.
type FailKind string

const (
	// FailTimeout is transient: retryable with backoff, identity rotation
	// after repeated occurrences.
	FailTimeout FailKind = "timeout"
	// FailBlocked is a suspected bot-detection trigger. Never retry with
	// identical session parameters; rotate identity first.
	FailBlocked FailKind = "blocked"
	// FailNotFound means the listing no longer exists. Permanent.
	FailNotFound FailKind = "not_found"
	// FailStructureChanged means expected DOM anchors are missing. Permanent
	// for the item and a maintenance signal: the site has likely drifted.
	FailStructureChanged FailKind = "structure_changed"
)

// NavError is a classified navigation failure wrapping its cause.
type NavError struct {
	Kind FailKind
	Err  error
}

func (e *NavError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("navigation failed: %s", e.Kind)
	}
	return fmt.Sprintf("navigation failed: %s: %v", e.Kind, e.Err)
}

func (e *NavError) Unwrap() error { return e.Err }

// NavFail builds a NavError of the given kind.
func NavFail(kind FailKind, err error) *NavError {
	return &NavError{Kind: kind, Err: err}
}

// FailKindOf extracts the failure classification from an error chain.
// Unclassified errors are reported as timeouts, the only retryable default.
func FailKindOf(err error) FailKind {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return FailTimeout
}

// Retryable reports whether a failure of this kind may be attempted again
// within the same run (after rotation in the blocked case).
func (k FailKind) Retryable() bool {
	return k == FailTimeout || k == FailBlocked
}
