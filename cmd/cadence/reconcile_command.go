package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cadence/internal/dataset"
	"cadence/internal/reconcile"
	"cadence/internal/snapshot"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var truthPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reconcile <snapshot>...",
		Short: "Score annotator snapshots against the ground-truth snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := ctx.ensureCollection()
			if err != nil {
				return fmt.Errorf("dataset: %w", err)
			}
			truth, err := loadDecisionSet(truthPath, col.SourceID)
			if err != nil {
				return err
			}
			sets := make([]reconcile.DecisionSet, 0, len(args))
			for _, path := range args {
				set, err := loadDecisionSet(path, col.SourceID)
				if err != nil {
					return err
				}
				sets = append(sets, set)
			}

			accuracy := reconcile.AccuracyReport(truth, sets)
			agreement := reconcile.PairwiseAgreement(sets)

			if asJSON {
				return writeJSON(cmd, map[string]any{
					"accuracy":  accuracy,
					"agreement": agreement,
				})
			}

			out := cmd.OutOrStdout()
			accuracyRows := make([][]string, 0, len(accuracy))
			for _, row := range accuracy {
				accuracyRows = append(accuracyRows, []string{
					dataset.DisplayName(row.Source),
					fmt.Sprintf("%d", row.Comparable),
					fmt.Sprintf("%d", row.Correct),
					formatPercent(row.Rate),
				})
			}
			fmt.Fprintln(out, "Accuracy against ground truth:")
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Comparable", "Correct", "Accuracy"},
				accuracyRows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))

			if len(agreement) > 0 {
				agreementRows := make([][]string, 0, len(agreement))
				for _, row := range agreement {
					agreementRows = append(agreementRows, []string{
						dataset.DisplayName(row.SourceA),
						dataset.DisplayName(row.SourceB),
						fmt.Sprintf("%d", row.Comparable),
						fmt.Sprintf("%d", row.Matched),
						formatPercent(row.Rate),
					})
				}
				fmt.Fprintln(out, "Inter-annotator agreement:")
				fmt.Fprintln(out, renderTable(
					[]string{"Source A", "Source B", "Comparable", "Matched", "Agreement"},
					agreementRows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&truthPath, "truth", "t", "", "Ground-truth snapshot file")
	_ = cmd.MarkFlagRequired("truth")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of tables")
	return cmd
}

func newFinalizeCommand(ctx *commandContext) *cobra.Command {
	var truthPath string
	var outDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Expand the ground-truth snapshot into derived clip-level labels",
		Long: "Finalize cross-multiplies each decided battle's sides into winner/loser clip\n" +
			"pairs and writes the derived label table plus a per-battle summary. It\n" +
			"refuses while any valid battle lacks a decision.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			col, err := ctx.ensureCollection()
			if err != nil {
				return fmt.Errorf("dataset: %w", err)
			}
			truth, err := loadDecisionSet(truthPath, col.SourceID)
			if err != nil {
				return err
			}
			labels, summaries, err := reconcile.ExpandDerived(col, truth)
			if err != nil {
				return err
			}

			target := outDir
			if target == "" {
				target = cfg.Paths.ExportDir
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			ext := "csv"
			writeLabels := reconcile.WriteDerivedCSV
			writeSummary := reconcile.WriteSummaryCSV
			if asJSON {
				ext = "json"
				writeLabels = reconcile.WriteDerivedJSON
				writeSummary = reconcile.WriteSummaryJSON
			}

			labelsPath := filepath.Join(target, "derived_labels."+ext)
			summaryPath := filepath.Join(target, "battle_summary."+ext)
			if err := writeFileWith(labelsPath, labels, writeLabels); err != nil {
				return err
			}
			if err := writeFileWith(summaryPath, summaries, writeSummary); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d derived labels to %s\n", len(labels), labelsPath)
			fmt.Fprintf(out, "Wrote %d battle summaries to %s\n", len(summaries), summaryPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&truthPath, "truth", "t", "", "Ground-truth snapshot file")
	_ = cmd.MarkFlagRequired("truth")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to the configured export directory)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of CSV")
	return cmd
}

// loadDecisionSet reads a battle-mode snapshot and lifts it into a decision
// set. Dataset mismatch is always fatal; identity is deliberately lenient
// since reconciliation handles other annotators' files.
func loadDecisionSet(path, datasetID string) (reconcile.DecisionSet, error) {
	snap, err := readSnapshotFile(path)
	if err != nil {
		return reconcile.DecisionSet{}, err
	}
	if err := snap.Validate(datasetID, snapshot.Identity{}, false); err != nil {
		return reconcile.DecisionSet{}, fmt.Errorf("%s: %w", path, err)
	}
	set, err := reconcile.FromSnapshot(snap)
	if err != nil {
		return reconcile.DecisionSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

func writeFileWith[T any](path string, rows []T, write func(io.Writer, []T) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(file, rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
