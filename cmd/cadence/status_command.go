package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := &http.Client{Timeout: 5 * time.Second}
			url := fmt.Sprintf("http://%s/api/status", cfg.Paths.APIBind)
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("reach daemon at %s: %w (is cadenced running?)", cfg.Paths.APIBind, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("daemon returned %s", resp.Status)
			}
			var status daemon.Status
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, status)
			}
			rows := [][]string{
				{"Running", yesNo(status.Running)},
				{"Dataset", status.Dataset},
				{"Mode", status.Mode},
				{"Clips", fmt.Sprintf("%d", status.Clips)},
				{"Battles", fmt.Sprintf("%d", status.Battles)},
				{"Invalid battles", fmt.Sprintf("%d", status.InvalidBattles)},
				{"Live sessions", fmt.Sprintf("%d", status.LiveSessions)},
				{"Journal", status.JournalPath},
			}
			if status.SourceError != "" {
				rows = append(rows, []string{"Source error", status.SourceError})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
