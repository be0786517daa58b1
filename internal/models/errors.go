package models

import (
	"errors"
	"fmt"
	"strings"
)

// BackendUnavailableError means the backend could not be reached or the
// configuration entity is missing. Recoverable: the last snapshot stays in
// place.
type BackendUnavailableError struct {
	Entity string
	Cause  error
}

func (e *BackendUnavailableError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("backend unavailable: %v", e.Cause)
	}
	if e.Cause != nil {
		return fmt.Sprintf("backend unavailable: entity %s: %v", e.Entity, e.Cause)
	}
	return fmt.Sprintf("backend unavailable: entity %s not found", e.Entity)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Cause }

// MalformedConfigError means the configuration entity exists but required
// structural fields are missing.
type MalformedConfigError struct {
	Missing string
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("malformed configuration: missing %s", e.Missing)
}

// ValidationError lists the required fields an edit draft is missing. The
// session stays open so the user can correct and retry.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing required fields: %s", strings.Join(e.Fields, ", "))
}

// SaveFailedError wraps a rejected configuration write. Local state is left
// unchanged.
type SaveFailedError struct {
	Cause error
}

func (e *SaveFailedError) Error() string {
	return fmt.Sprintf("save failed: %v", e.Cause)
}

func (e *SaveFailedError) Unwrap() error { return e.Cause }

// ActionFailedError wraps a rejected backend action call.
type ActionFailedError struct {
	Action  string
	Message string
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action %s failed: %s", e.Action, e.Message)
}

// ErrSaveInFlight is returned when a save is requested while another one is
// still running. Duplicate triggers are coalesced, not queued.
var ErrSaveInFlight = errors.New("a save is already in flight")

// ErrNoActiveSession is returned for tab/commit/cancel calls without an
// open edit session.
var ErrNoActiveSession = errors.New("no active edit session")
