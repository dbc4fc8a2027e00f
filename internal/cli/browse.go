// internal/cli/browse.go
package canvasmcp

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mwiater/canvasmcp/internal/canvas"
	"github.com/mwiater/canvasmcp/internal/tui"
)

// browseCmd implements 'browse', an interactive list of upcoming assignments.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse upcoming assignments interactively",
	Long:  `The 'browse' command opens a terminal UI listing assignments due within --days days. Press enter for details, r to refresh and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := activeConfig()
		days, _ := cmd.Flags().GetInt("days")
		if !cmd.Flags().Changed("days") {
			days = cfg.DefaultDaysAhead()
		}

		client, err := newEnvClient(cfg)
		if err != nil {
			return err
		}
		fetch := func(ctx context.Context) (canvas.UpcomingAssignments, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout())
			defer cancel()
			return client.UpcomingAssignments(ctx, days)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return tui.StartBrowser(ctx, fetch, days)
	},
}

func init() {
	browseCmd.Flags().Int("days", 7, "look-ahead window in days")
	rootCmd.AddCommand(browseCmd)
}
