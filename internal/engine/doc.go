// Package engine is the immutable inference handle the HTTP layer serves
// from. It is built once at startup around a ready classifier and adds:
//
//   - engine.go: Engine type, constructor, readiness, class listing, Close.
//   - config.go: Config and package defaults.
//   - admission.go: bounded queue in front of a single in-flight slot.
//   - analyze.go: decode → admit → classify for one upload.
//   - status.go: counters and the /status projection.
//   - errors.go: error types and helpers (IsTooBusy, IsNotReady).
package engine
