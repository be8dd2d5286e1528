// Package daemon runs the cadenced process: it loads the candidate
// collection, opens the autosave journal, and serves the HTTP API the
// browser UI labels through.
//
// A failed dataset load does not keep the daemon from starting — annotators
// can still sign in and see a descriptive "no work" condition — but no
// assignment logic ever runs against a partial collection. An instance lock
// on the journal prevents two daemons from sharing autosave state.
package daemon
