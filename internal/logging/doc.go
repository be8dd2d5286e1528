// Package logging builds the slog loggers the daemon and CLI share.
//
// Two handler formats are supported: a human-oriented console handler with an
// aligned header and indented fields, and a machine-oriented JSON handler.
// Standardized field keys keep session, annotator, and dataset attributes
// greppable across the codebase.
package logging
