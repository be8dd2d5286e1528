package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cadence/internal/journal"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Autosave journal maintenance",
	}

	journalCmd.AddCommand(newJournalListCommand(ctx))
	journalCmd.AddCommand(newJournalRecoverCommand(ctx))

	return journalCmd
}

func withJournal(ctx *commandContext, fn func(*journal.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newJournalListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled labeling sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(ctx, func(store *journal.Store) error {
				sessions, err := store.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, sessions)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No journaled sessions")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, meta := range sessions {
					rows = append(rows, []string{
						meta.ID,
						meta.Dataset,
						fmt.Sprintf("%s (%s)", meta.Identity.Name, meta.Identity.ID),
						string(meta.Mode),
						fmt.Sprintf("%d", meta.Events),
						meta.UpdatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Session", "Dataset", "Annotator", "Mode", "Events", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newJournalRecoverCommand(ctx *commandContext) *cobra.Command {
	var annotatorID string
	var outPath string

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Replay the newest journaled session into a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withJournal(ctx, func(store *journal.Store) error {
				snap, err := store.Recover(cmd.Context(), cfg.Dataset.ID, annotatorID)
				if err != nil {
					return err
				}
				data, err := snap.Encode()
				if err != nil {
					return err
				}
				target := outPath
				if target == "" {
					target = fmt.Sprintf("cadence_%s_%s_recovered.json", snap.Dataset, snap.Identity.ID)
				}
				if err := os.WriteFile(target, data, 0o644); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recovered session for %s (%d decisions, %d pairs) to %s\n",
					snap.Identity.Name, len(snap.Decisions), len(snap.Pairs), target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&annotatorID, "annotator", "a", "", "Roster identifier to recover")
	_ = cmd.MarkFlagRequired("annotator")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination snapshot file")
	return cmd
}
