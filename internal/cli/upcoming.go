// internal/cli/upcoming.go
package canvasmcp

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/canvasmcp/internal/canvas"
)

// upcomingCmd implements 'upcoming', which prints assignments due soon as a table.
var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Print assignments due in the next few days",
	Long:  `The 'upcoming' command lists assignments due within --days days across all active courses, using CANVAS_URL and CANVAS_API_TOKEN from the environment.`,
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
		ctx, cancel := withCallTimeout(cmd)
		defer cancel()

		result, err := client.UpcomingAssignments(ctx, days)
		if err != nil {
			printToolError(cmd.ErrOrStderr(), err)
			return err
		}
		renderUpcoming(cmd.OutOrStdout(), result, client.Now(), days)
		return nil
	},
}

// dueColor picks a colour by how close the deadline is.
func dueColor(due *time.Time, now time.Time) *color.Color {
	switch {
	case due == nil:
		return color.New(color.FgWhite)
	case due.Sub(now) < 24*time.Hour:
		return color.New(color.FgRed, color.Bold)
	case due.Sub(now) < 72*time.Hour:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func renderUpcoming(w io.Writer, result canvas.UpcomingAssignments, now time.Time, days int) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Due in the next %d days", days)))

	if len(result.Assignments) == 0 {
		fmt.Fprintln(w, "Nothing due.")
	} else {
		rows := make([][]string, 0, len(result.Assignments))
		for _, a := range result.Assignments {
			due := "-"
			if a.DueAt != nil {
				due = a.DueAt.UTC().Format("Mon Jan 2 15:04")
			}
			points := ""
			if a.PointsPossible != nil {
				points = fmt.Sprintf("%g", *a.PointsPossible)
			}
			rows = append(rows, []string{dueColor(a.DueAt, now).Sprint(due), a.CourseName, a.Name, points})
		}
		headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cellStyle := lipgloss.NewStyle().Padding(0, 1)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("DUE (UTC)", "COURSE", "ASSIGNMENT", "POINTS").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(w, t.String())
	}

	if len(result.Diagnostics) > 0 {
		warn := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintln(w, warn(fmt.Sprintf("%d course(s) could not be loaded:", len(result.Diagnostics))))
		for _, d := range result.Diagnostics {
			fmt.Fprintf(w, "  %s (%d): %s\n", d.CourseName, d.CourseID, d.Message)
		}
	}
}

func init() {
	upcomingCmd.Flags().Int("days", 7, "look-ahead window in days")
	rootCmd.AddCommand(upcomingCmd)
}
