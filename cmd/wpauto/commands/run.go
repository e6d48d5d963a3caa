package commands

import (
	"weeklyplanner-auto/lib/chrono"
	"weeklyplanner-auto/lib/restyutil"
	"weeklyplanner-auto/lib/serviceutil"
	"weeklyplanner-auto/services/renewal"

	"github.com/spf13/cobra"
)

var force *bool
var telegram *bool

func init() {
	force = runCmd.Flags().Bool("force", false, "Submit even on dates already marked assigned.")
	telegram = runCmd.Flags().Bool("tg", false, "Report run progress over telegram.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--force] [--tg]",
	Short: "Processes the two-week booking window according to the configured schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		notifier := buildNotifier(cfg, *telegram)

		session, creds := createSession(ctx, cfg)
		service := renewal.NewService(
			session,
			notifier,
			chrono.SystemClock{},
			restyutil.NewFilesystemOutput(dumpDir),
		)

		_, err := service.Run(ctx, creds, cfg.Schedule, renewal.Options{Force: *force})
		if err != nil {
			serviceutil.Fatal("renewal run failed", err)
		}
	},
}
