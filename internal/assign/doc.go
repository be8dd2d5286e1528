// Package assign decides which annotator owns a given comparison.
//
// Ownership is a pure function of the comparison key and the dataset salt:
// every client can recompute "is this mine?" independently, with no
// coordination service. The hash is a 32-bit signed djb2 variant whose exact
// wraparound behaviour is part of the wire contract — changing it would
// silently repartition every dataset, so it must never be swapped for another
// hash function.
package assign
