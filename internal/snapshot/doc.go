// Package snapshot defines the portable progress file one annotator exports
// and another session (or the ground-truth reconciler) imports.
//
// The format is versioned by an explicit tag. Decoding never yields a
// best-effort partial object: input either validates into a Snapshot or
// fails with a specific, human-actionable reason. Dataset and identity
// mismatches always hard-stop the import that would otherwise mix two
// annotators' or two datasets' progress.
package snapshot
