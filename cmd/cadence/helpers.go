package main

import (
	"fmt"
	"os"
	"time"

	"cadence/internal/snapshot"
)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

// readSnapshotFile loads and decodes one snapshot file, wrapping errors with
// the file name so multi-file commands point at the offender.
func readSnapshotFile(path string) (*snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
