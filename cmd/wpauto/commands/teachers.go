package commands

import (
	"fmt"
	"os"

	"weeklyplanner-auto/lib/chrono"
	"weeklyplanner-auto/lib/restyutil"
	"weeklyplanner-auto/lib/serviceutil"
	"weeklyplanner-auto/services/renewal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(teachersCmd)
}

var teachersCmd = &cobra.Command{
	Use:   "teachers",
	Short: "Lists the staff available on the first actionable date, without submitting anything.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		notifier := buildNotifier(cfg, false)

		session, creds := createSession(ctx, cfg)
		service := renewal.NewService(
			session,
			notifier,
			chrono.SystemClock{},
			restyutil.NewFilesystemOutput(dumpDir),
		)

		result, err := service.Run(ctx, creds, cfg.Schedule, renewal.Options{ListTeachers: true})
		if err != nil {
			serviceutil.Fatal("failed to list staff", err)
		}
		if result.Staff == nil {
			fmt.Fprintln(os.Stderr, "no actionable date in the window, nothing to list")
			return
		}

		fmt.Printf("staff on %s:\n", chrono.ISODate(result.StaffDate))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Id", "Room"})
		for _, record := range result.Staff {
			t.AppendRow(table.Row{record.Name, record.StaffId, record.Room})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
