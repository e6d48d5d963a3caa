package commands

import (
	"context"
	"fmt"
	"os"

	"weeklyplanner-auto/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose *bool
var configFile *string

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
	configFile = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to load.")
}

var rootCmd = &cobra.Command{
	Use:   "wpauto",
	Short: "wpauto books weekly planner staff sessions unattended.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
