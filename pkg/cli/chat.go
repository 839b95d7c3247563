package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/coach"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg         config
		logCfg      logConfig
		historyFile string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "history-file",
			Usage:       "File to keep the input history in",
			Sources:     cli.EnvVars("POCKETCOACH_CHAT_HISTORY"),
			Destination: &historyFile,
		},
	}
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, knowledgeFlags(&cfg)...)
	flags = append(flags, retrievalFlags(&cfg)...)
	flags = append(flags, logFlags(&logCfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the coach in the terminal",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.apply(ctx)
			w := c.Root().Writer

			session, closeRepo, err := cfg.newCoach(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				HistoryFile:     historyFile,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start line editor")
			}
			defer rl.Close()

			fmt.Fprintf(w, "Chat session started. Log meals like '닭가슴살 200g', ask questions, or type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" || message == "quit" {
					break
				}
				if message == "" {
					continue
				}

				if err := sendMessage(ctx, w, session, message); err != nil {
					return err
				}
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return nil
		},
	}
}

// sendMessage shows a spinner while the coach works and prints the reply.
func sendMessage(ctx context.Context, w io.Writer, c *coach.Coach, message string) error {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	sp.Suffix = " thinking..."
	sp.Start()
	reply, err := c.Handle(ctx, message)
	sp.Stop()
	if err != nil {
		return goerr.Wrap(err, "failed to handle message")
	}

	fmt.Fprintf(w, "%s\n", reply.Response)
	if s := reply.DailySummary; s != nil {
		fmt.Fprintf(w, "  today: %.0f kcal, protein %.1fg, carbs %.1fg, fat %.1fg\n", s.Calories, s.Protein, s.Carbs, s.Fat)
	}
	if p := reply.Profile; p != nil && p.Plan != nil && !p.Plan.Failed() {
		fmt.Fprintf(w, "  daily goal: %d kcal\n", p.Plan.DietPlan.DailyCaloriesGoal.Int())
	}
	return nil
}
