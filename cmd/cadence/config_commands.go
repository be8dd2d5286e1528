package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if err := config.WriteSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to point dataset.path at your clip CSV and fill in the annotator roster.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			col, err := ctx.ensureCollection()
			if err != nil {
				return fmt.Errorf("dataset: %w", err)
			}
			fmt.Fprintf(out, "Dataset %s: %d clips, %d battles", col.SourceID, col.Len(), len(col.Battles()))
			if dropped := col.InvalidBattles(); dropped > 0 {
				fmt.Fprintf(out, " (%d videos dropped: not exactly two dancers)", dropped)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Roster: %d annotators, pool size %d\n", len(cfg.Annotators), cfg.Assignment.PoolSize)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, redacted(cfg))
			}
			rows := [][]string{
				{"dataset.path", cfg.Dataset.Path},
				{"dataset.id", cfg.Dataset.ID},
				{"dataset.mode", cfg.Dataset.Mode},
				{"dataset.media_base_dir", cfg.Dataset.MediaBaseDir},
				{"assignment.pool_size", fmt.Sprintf("%d", cfg.Assignment.PoolSize)},
				{"assignment.overlap_rate", fmt.Sprintf("%.2f", cfg.Assignment.OverlapRate)},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"paths.export_dir", cfg.Paths.ExportDir},
				{"paths.journal_path", cfg.Paths.JournalPath},
				{"paths.api_bind", cfg.Paths.APIBind},
				{"logging.level", cfg.Logging.Level},
				{"logging.format", cfg.Logging.Format},
			}
			for _, a := range cfg.Annotators {
				rows = append(rows, []string{
					"annotator." + a.ID,
					fmt.Sprintf("%s slot=%d role=%s passcode=%s", a.Name, a.Slot, a.Role, maskPasscode(a.Passcode)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

// redacted strips passcodes before the config leaves the process.
func redacted(cfg *config.Config) config.Config {
	clone := *cfg
	clone.Annotators = make([]config.Annotator, len(cfg.Annotators))
	copy(clone.Annotators, cfg.Annotators)
	for i := range clone.Annotators {
		clone.Annotators[i].Passcode = maskPasscode(clone.Annotators[i].Passcode)
	}
	return clone
}

func maskPasscode(passcode string) string {
	if passcode == "" {
		return "(unset)"
	}
	return "****"
}
