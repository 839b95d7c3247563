package cli

import (
	"context"
	"os"

	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := loadDotEnv(".env"); err != nil {
		logging.Default().Error("failed to load environment", "error", err)
		return &Error{Code: 1, Message: err.Error()}
	}

	cmd := &cli.Command{
		Name:  "pocketcoach",
		Usage: "Conversational fitness coach backed by retrieval-augmented generation",
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			planCommand(),
			searchCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

type logConfig struct {
	level  string
	format string
}

// logFlags returns flags of the process logger
func logFlags(cfg *logConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("POCKETCOACH_LOG_LEVEL"),
			Destination: &cfg.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("POCKETCOACH_LOG_FORMAT"),
			Destination: &cfg.format,
		},
	}
}

// apply installs the configured logger as default and on ctx.
func (cfg *logConfig) apply(ctx context.Context) context.Context {
	logger := logging.New(cfg.level, os.Stderr, logging.WithFormat(logging.Format(cfg.format)))
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}
