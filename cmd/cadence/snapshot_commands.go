package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/snapshot"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and validate progress snapshot files",
	}

	snapshotCmd.AddCommand(newSnapshotInspectCommand())
	snapshotCmd.AddCommand(newSnapshotValidateCommand(ctx))

	return snapshotCmd
}

func newSnapshotInspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "inspect <file>",
		Short:       "Summarize a progress snapshot",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}

			entries, submitted := snapshotCounts(snap)
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"format":    snap.Format,
					"dataset":   snap.Dataset,
					"identity":  snap.Identity,
					"mode":      snap.Mode,
					"cursor":    snap.Cursor,
					"entries":   entries,
					"submitted": submitted,
					"createdAt": snap.CreatedAt,
					"updatedAt": snap.UpdatedAt,
				})
			}

			rows := [][]string{
				{"Format", snap.Format},
				{"Dataset", snap.Dataset},
				{"Annotator", fmt.Sprintf("%s (%s)", snap.Identity.Name, snap.Identity.ID)},
				{"Role", snap.Identity.Role},
				{"Slot", fmt.Sprintf("%d", snap.Identity.Slot)},
				{"Mode", string(snap.Mode)},
				{"Entries", fmt.Sprintf("%d", entries)},
				{"Submitted", fmt.Sprintf("%d", submitted)},
				{"Cursor", fmt.Sprintf("%d", snap.Cursor)},
				{"Created", formatMillis(snap.CreatedAt)},
				{"Updated", formatMillis(snap.UpdatedAt)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newSnapshotValidateCommand(ctx *commandContext) *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a snapshot against the configured dataset and roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			col, err := ctx.ensureCollection()
			if err != nil {
				return fmt.Errorf("dataset: %w", err)
			}
			snap, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}

			identity := snapshot.Identity{}
			if !lenient {
				found := false
				for _, a := range cfg.Annotators {
					if a.ID == snap.Identity.ID {
						identity = a.Identity()
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("snapshot identity %q is not on the roster (use --lenient to skip the identity check)", snap.Identity.ID)
				}
			}
			if err := snap.Validate(col.SourceID, identity, !lenient); err != nil {
				return err
			}

			unresolved := 0
			for _, pair := range snap.Pairs {
				if _, ok := col.Resolve(pair.Left); !ok {
					unresolved++
					continue
				}
				if _, ok := col.Resolve(pair.Right); !ok {
					unresolved++
				}
			}
			for video := range snap.Decisions {
				if _, ok := col.BattleFor(video); !ok {
					unresolved++
				}
			}

			out := cmd.OutOrStdout()
			entries, submitted := snapshotCounts(snap)
			fmt.Fprintf(out, "Snapshot valid: %d entries, %d submitted\n", entries, submitted)
			if unresolved > 0 {
				fmt.Fprintf(out, "Warning: %d entries reference clips or battles missing from dataset %s and would be dropped on import\n",
					unresolved, col.SourceID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Skip the identity check (ground-truth ingestion of other annotators' files)")
	return cmd
}

func snapshotCounts(snap *snapshot.Snapshot) (entries, submitted int) {
	if snap.Mode == snapshot.ModeBattle {
		entries = len(snap.Decisions)
		for _, sub := range snap.Decisions {
			if sub.Winner != "" {
				submitted++
			}
		}
		return entries, submitted
	}
	entries = len(snap.Pairs)
	for _, pair := range snap.Pairs {
		if pair.Submission != nil {
			submitted++
		}
	}
	return entries, submitted
}
