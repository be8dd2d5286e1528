// Package journal is the local autosave store: every judgment made during a
// live session is appended to a SQLite log so a crashed browser or daemon
// restart loses nothing since the last keystroke.
//
// The journal is client-side convenience, not shared state. Cross-annotator
// exchange still happens exclusively through exported snapshot files;
// recovery simply reconstructs the snapshot the annotator never got to
// export.
package journal
