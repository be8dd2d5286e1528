// Package api is the service layer between transport handlers and the
// session, journal, and reconciliation stores. It exposes DTO views so the
// HTTP surface and the CLI render the same shapes without reaching into
// store internals.
package api
