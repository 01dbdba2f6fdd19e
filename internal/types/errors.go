package types

import "errors"

// Error kinds shared by the pending store, the board adapters and the sync
// orchestrator.
//
// Every layer wraps these with fmt.Errorf("...: %w", ...) so callers can
// classify a failure with errors.Is:
//
//	if errors.Is(err, types.ErrRemoteUnavailable) {
//	    // board is down, keep the task locally
//	}
var (
	// ErrNotFound is returned when a referenced task, sub-task, list or card
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is not legal for the
	// current status of a task (editing a task that is being uploaded,
	// skipping a status transition).
	ErrInvalidState = errors.New("invalid state")

	// ErrRemoteUnavailable is returned when the board cannot be reached:
	// network failures, timeouts, rejected credentials, throttling and
	// server-side errors.
	ErrRemoteUnavailable = errors.New("remote board unavailable")

	// ErrRemoteRejected is returned when the board refused a request for
	// reasons specific to the payload. Retrying the same request will not help.
	ErrRemoteRejected = errors.New("remote board rejected request")

	// ErrStorage is returned when the local pending store fails to read or
	// write.
	ErrStorage = errors.New("local storage failure")

	// ErrInvalidInput is returned when user supplied values fail validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured is returned when the board credentials or ids are
	// missing from the configuration.
	ErrNotConfigured = errors.New("not configured")
)

// IsFatal reports whether err should make the process exit non-zero.
//
// Remote unavailability and invalid-state errors are reported to the user
// but are not fatal: the tool degrades to local storage instead.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRemoteRejected),
		errors.Is(err, ErrStorage),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotConfigured):
		return true
	case errors.Is(err, ErrRemoteUnavailable),
		errors.Is(err, ErrInvalidState):
		return false
	}
	// Unclassified errors (usage errors from the CLI layer) are fatal.
	return true
}

// Kind returns a short name for the error kind of err, or "" when err does
// not wrap one of the sentinels above.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrRemoteRejected):
		return "remote_rejected"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	}
	return ""
}
