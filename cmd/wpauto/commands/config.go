package commands

import (
	"context"
	"errors"
	"log/slog"

	"weeklyplanner-auto/lib/configutil"
	"weeklyplanner-auto/lib/notify"
	"weeklyplanner-auto/lib/restyutil"
	"weeklyplanner-auto/lib/serviceutil"
	"weeklyplanner-auto/lib/weeklyplanner"
	"weeklyplanner-auto/services/renewal"
)

const dumpDir = ".dev/wpauto"

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// telegram bot credentials, only required with --tg
	BotToken string `json:"bot_token"`
	Target   string `json:"target"`

	Email    *notify.EmailConfig `json:"email"`
	Schedule renewal.Week        `json:"schedule"`
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configFile)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.BaseUrl == "" {
		serviceutil.Fatal("invalid config", errors.New("base_url is required"))
	}
	if cfg.Username == "" || cfg.Password == "" {
		serviceutil.Fatal("invalid config", errors.New("username and password are required"))
	}
	return cfg
}

func buildNotifier(cfg Config, telegram bool) notify.Notifier {
	sinks := notify.Multi{notify.Log{}}
	if telegram {
		if cfg.BotToken == "" || cfg.Target == "" {
			serviceutil.Fatal(
				"invalid config",
				errors.New("--tg requires bot_token and target in the config"),
			)
		}
		sinks = append(sinks, notify.NewTelegram(cfg.BotToken, cfg.Target, cfg.Username))
	}
	if cfg.Email != nil {
		sinks = append(sinks, notify.NewEmail(*cfg.Email))
	}
	return sinks
}

// createSession bootstraps and logs in, exiting the process on failure.
// Dump paths from transcripts are surfaced before dying so the operator
// can inspect what the origin actually said.
func createSession(ctx context.Context, cfg Config) (*weeklyplanner.Session, weeklyplanner.Credentials) {
	session, err := weeklyplanner.NewSession(ctx, weeklyplanner.SessionOptions{
		BaseUrl: cfg.BaseUrl,
		Dumps:   restyutil.NewFilesystemOutput(dumpDir),
	})
	if err != nil {
		fatalWithDump("failed to bootstrap session", err)
	}

	slog.InfoContext(ctx, "logging in", "username", cfg.Username)
	creds, err := session.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		fatalWithDump("failed to login", err)
	}
	return session, creds
}

func fatalWithDump(message string, err error) {
	var statusErr *weeklyplanner.StatusError
	if errors.As(err, &statusErr) && statusErr.DumpFile != "" {
		slog.Error("request transcript recorded", "path", statusErr.DumpFile)
	}
	serviceutil.Fatal(message, err)
}
