// Package main hosts the cadence CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the offline side of the labeling
// workflow: configuration scaffolding, snapshot inspection and validation,
// per-annotator coverage reports, ground-truth reconciliation, derived-label
// export, and autosave journal maintenance. It centralizes configuration
// resolution and dataset loading so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
