package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/assign"
	"cadence/internal/config"
	"cadence/internal/dataset"
	"cadence/internal/snapshot"
)

type coverageRow struct {
	Annotator string  `json:"annotator"`
	Slot      int     `json:"slot"`
	Role      string  `json:"role"`
	Owned     int     `json:"owned"`
	Submitted int     `json:"submitted"`
	Fraction  float64 `json:"fraction"`
}

func newCoverageCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var snapshotPaths []string

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Report per-annotator assignment coverage",
		Long: "Coverage enumerates the comparison space for the configured pool and reports\n" +
			"how much of each roster entry's assignment is complete. Pass exported\n" +
			"snapshots with --snapshot to count submissions; without them only the owned\n" +
			"totals are shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			col, err := ctx.ensureCollection()
			if err != nil {
				return fmt.Errorf("dataset: %w", err)
			}

			submittedByID := make(map[string]int)
			for _, path := range snapshotPaths {
				snap, err := readSnapshotFile(path)
				if err != nil {
					return err
				}
				if err := snap.Validate(col.SourceID, snapshot.Identity{}, false); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				_, submitted := snapshotCounts(snap)
				submittedByID[snap.Identity.ID] += submitted
			}

			oracle := assign.New(assign.Params{
				PoolSize:    cfg.Assignment.PoolSize,
				OverlapRate: cfg.Assignment.OverlapRate,
			})
			mode := cfg.Mode()

			results := make([]coverageRow, 0, len(cfg.Annotators))
			for _, a := range cfg.Annotators {
				slot := a.Slot
				rowOracle := oracle
				if a.Role == config.RoleGroundTruth {
					rowOracle = assign.New(assign.Params{PoolSize: 1})
					slot = 0
				}
				row := coverageRow{
					Annotator: a.Name,
					Slot:      slot,
					Role:      a.Role,
					Owned:     ownedCount(col, rowOracle, mode, slot),
					Submitted: submittedByID[a.ID],
				}
				if row.Owned > 0 {
					row.Fraction = float64(row.Submitted) / float64(row.Owned)
				}
				results = append(results, row)
			}

			if asJSON {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					dataset.DisplayName(r.Annotator),
					fmt.Sprintf("%d", r.Slot),
					r.Role,
					fmt.Sprintf("%d", r.Owned),
					fmt.Sprintf("%d", r.Submitted),
					formatPercent(r.Fraction),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Annotator", "Slot", "Role", "Owned", "Submitted", "Coverage"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().StringArrayVar(&snapshotPaths, "snapshot", nil, "Exported snapshot file to count submissions from (repeatable)")
	return cmd
}

// ownedCount enumerates the comparison space for one slot. Battle mode tests
// every valid battle in overlap mode; pairwise mode tests every unordered
// clip pair in exclusive mode.
func ownedCount(col *dataset.Collection, oracle assign.Oracle, mode snapshot.Mode, slot int) int {
	salt := col.SourceID
	if mode == snapshot.ModeBattle {
		owned := 0
		for _, battle := range col.Battles() {
			if oracle.OwnsOverlap(slot, battle.Video, salt) {
				owned++
			}
		}
		return owned
	}
	ids := col.SortedIDs()
	owned := 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if oracle.OwnsExclusive(slot, assign.Key(ids[i], ids[j]), salt) {
				owned++
			}
		}
	}
	return owned
}
