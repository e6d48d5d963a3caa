package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"weeklyplanner-auto/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(genConfigCmd)
}

const configScaffold = `{
	base_url: "https://planner.example.org",
	username: %q,
	password: "",
	// telegram reporting, used with 'run --tg'
	bot_token: "",
	target: "",
	// per-weekday schedule, sunday first; leave a day null to skip it
	schedule: [
		null,
		{
			selection_candidate: { room: "204" },
			plan: "Checked in",
		},
		null,
		null,
		null,
		null,
		null,
	],
}
`

var genConfigCmd = &cobra.Command{
	Use:   "gen-config <username>",
	Short: "Writes a config scaffold for the given username.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0] + ".config.json5"
		_, err := os.Stat(path)
		if err == nil {
			serviceutil.Fatal("refusing to overwrite", errors.New(path+" already exists"))
		}
		if !errors.Is(err, os.ErrNotExist) {
			serviceutil.Fatal("failed to stat "+path, err)
		}

		err = os.WriteFile(path, []byte(fmt.Sprintf(configScaffold, args[0])), 0600)
		if err != nil {
			serviceutil.Fatal("failed to write "+path, err)
		}
		slog.Info("wrote config scaffold", "path", path)
	},
}
