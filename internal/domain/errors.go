package domain

import "errors"

var (
	// ErrInvalidConfig is returned for setup input outside the accepted range;
	// the session stays in the setup state.
	ErrInvalidConfig = errors.New("invalid quiz configuration")
	// ErrInvalidResponse indicates the question provider reported a failure or
	// returned fewer questions than requested.
	ErrInvalidResponse = errors.New("invalid provider response")
	// ErrMalformedRecord indicates a provider record missing its correct
	// answer or carrying no incorrect answers.
	ErrMalformedRecord = errors.New("malformed question record")
	// ErrStoreUnavailable indicates leaderboard persistence failed; callers
	// degrade to the in-memory board instead of surfacing it.
	ErrStoreUnavailable = errors.New("leaderboard store unavailable")
	// ErrNotRunnable is returned when an intent arrives in a state that
	// cannot process it.
	ErrNotRunnable = errors.New("session not in a runnable state")
)
