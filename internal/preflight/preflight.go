// Package preflight verifies the daemon can actually serve before it binds:
// the dataset parses and is non-empty, the export directory is writable with
// room to spare, and the journal opens. Assignment logic never runs against
// a partial or missing candidate collection.
package preflight

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"

	"cadence/internal/config"
	"cadence/internal/dataset"
	"cadence/internal/journal"
)

// Result is one check's outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minExportBytes is the free-space floor for the export directory. Snapshot
// and derived-label files are small; anything under 50 MiB means the disk is
// effectively full.
const minExportBytes = 50 << 20

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDataset(ctx, cfg),
		CheckExportDir(cfg),
		CheckJournal(cfg),
	}
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// CheckDataset loads the candidate collection and reports its shape.
func CheckDataset(_ context.Context, cfg *config.Config) Result {
	result := Result{Name: "dataset"}
	col, err := dataset.LoadFile(cfg.Dataset.Path, cfg.Dataset.ID)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%d clips, %d battles (%d invalid)", col.Len(), len(col.Battles()), col.InvalidBattles())
	return result
}

// CheckExportDir verifies the export directory exists, is writable, and has
// free space.
func CheckExportDir(cfg *config.Config) Result {
	result := Result{Name: "export dir"}
	dir := cfg.Paths.ExportDir
	if dir == "" {
		result.Detail = "paths.export_dir is not set"
		return result
	}
	if err := cfg.EnsureDirectories(); err != nil {
		result.Detail = err.Error()
		return result
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		result.Detail = fmt.Sprintf("%s is not writable: %v", dir, err)
		return result
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		result.Detail = fmt.Sprintf("statfs %s: %v", dir, err)
		return result
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minExportBytes {
		result.Detail = fmt.Sprintf("only %d bytes free in %s", free, dir)
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%s writable, %d MiB free", dir, free>>20)
	return result
}

// CheckJournal opens (creating if needed) the journal database.
func CheckJournal(cfg *config.Config) Result {
	result := Result{Name: "journal"}
	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	_ = store.Close()
	result.Passed = true
	result.Detail = cfg.Paths.JournalPath
	return result
}
