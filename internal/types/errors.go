package types

import "errors"

// Error taxonomy. Callers branch with errors.Is; wrapping sites add
// context with fmt.Errorf("...: %w", Err...).
var (
	// ErrInvalidInput covers validation failures: bad platform, bad trust
	// level, malformed request bodies.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized is returned when the data directory holds no
	// database and the operation requires one.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrStorageFailure is the single category all I/O and schema errors
	// surface as.
	ErrStorageFailure = errors.New("storage failure")

	// ErrUnauthorized is an admin request without valid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is a request rejected by the sliding-window limiter.
	ErrRateLimited = errors.New("rate limited")

	// ErrMisconfigured is raised at process start, never at first use.
	ErrMisconfigured = errors.New("misconfigured")

	// ErrNotFound is a non-fatal structured failure: delete of a missing
	// row, review of a missing quarantine entry.
	ErrNotFound = errors.New("not found")
)
