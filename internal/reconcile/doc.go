// Package reconcile compares independently collected battle decision sets
// against the ground-truth set: per-source accuracy, pairwise inter-annotator
// agreement, and the expansion of authoritative battle decisions into
// unit-level derived labels.
//
// A battle missing from the ground-truth set is never counted against an
// annotator — an unscored comparison is omitted from the denominator, not
// treated as a mismatch. Derived-label expansion refuses to run until every
// valid battle has an authoritative decision, so partial or inconsistent
// label sets are never exported.
package reconcile
