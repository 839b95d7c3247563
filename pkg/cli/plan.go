package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/health"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/plan"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func planCommand() *cli.Command {
	var (
		cfg       config
		logCfg    logConfig
		inputPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to JSON file containing the profile",
			Sources:     cli.EnvVars("POCKETCOACH_PROFILE"),
			Destination: &inputPath,
			Required:    true,
		},
	}
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, knowledgeFlags(&cfg)...)
	flags = append(flags, retrievalFlags(&cfg)...)
	flags = append(flags, logFlags(&logCfg)...)

	return &cli.Command{
		Name:  "plan",
		Usage: "Generate a diet and workout plan for a profile file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.apply(ctx)

			profile, err := readProfile(inputPath)
			if err != nil {
				return err
			}

			llm, err := cfg.newGenerator(ctx)
			if err != nil {
				return err
			}
			ix, err := cfg.newIndexes(ctx)
			if err != nil {
				return err
			}
			planner, err := newPlanner(llm, ix)
			if err != nil {
				return err
			}

			generated, err := planner.Generate(ctx, profile)
			if err != nil {
				logging.From(ctx).Warn("plan generation failed", "error", err)
				generated = plan.Failure(err)
			}

			enc := json.NewEncoder(c.Root().Writer)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(generated); err != nil {
				return goerr.Wrap(err, "failed to print plan")
			}
			return nil
		},
	}
}

// readProfile reads an onboarding profile and fills in its BMI.
func readProfile(path string) (*model.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}

	var profile model.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, goerr.Wrap(err, "failed to parse profile", goerr.V("path", path))
	}
	profile.BMI = model.Measure(health.BMI(profile.WeightKg.Float(), profile.HeightCm.Float()))
	return &profile, nil
}
