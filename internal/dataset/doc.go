// Package dataset loads the candidate collection the annotation session runs
// against: one row per clip, grouped into dancers and battles.
//
// The collection is loaded once at startup and read-only afterwards. Rows
// missing an identifier or a media reference are dropped during load, and
// battle grouping drops (and counts) any video that does not resolve to
// exactly two dancers.
package dataset
