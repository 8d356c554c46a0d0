package engine

import "errors"

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ reason string }

func (e tooBusyError) Error() string { return "too busy: " + e.reason }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// notReadyError signals that no classifier is attached (return 503).
type notReadyError struct{ state State }

func (e notReadyError) Error() string { return "engine not ready: " + string(e.state) }

// IsNotReady reports whether err indicates the engine cannot serve yet.
func IsNotReady(err error) bool {
	var e notReadyError
	return errors.As(err, &e)
}
