package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mifdirfan/PocketCoach/pkg/server"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg    config
		logCfg logConfig
	)

	var flags []cli.Flag
	flags = append(flags, serverFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, knowledgeFlags(&cfg)...)
	flags = append(flags, retrievalFlags(&cfg)...)
	flags = append(flags, logFlags(&logCfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API for the mobile client",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.apply(ctx)
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			coach, closeRepo, err := cfg.newCoach(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			srv := server.New(coach,
				server.WithRequestTimeout(cfg.requestTimeout),
				server.WithAllowedOrigins(cfg.allowedOrigins...),
			)
			return srv.ListenAndServe(ctx, cfg.addr)
		},
	}
}
