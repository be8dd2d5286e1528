// Package session holds one annotator's in-memory labeling state: an ordered
// history of presented comparisons and a cursor into it.
//
// The store is a plain state machine. Rendering layers observe it through
// the change callback and never mutate it directly; all transitions go
// through explicit methods so they stay independently testable. There is no
// server-side persistence: the exported snapshot is the only durable
// artifact, and state dies with the session.
package session
