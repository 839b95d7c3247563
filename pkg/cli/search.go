package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/catalog"
	"github.com/mifdirfan/PocketCoach/pkg/knowledge"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg    config
		logCfg logConfig
		query  string
		limit  int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Text to look up; the arguments are used when omitted",
			Sources:     cli.EnvVars("POCKETCOACH_SEARCH_QUERY"),
			Destination: &query,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of hits per index",
			Value:       5,
			Sources:     cli.EnvVars("POCKETCOACH_SEARCH_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, knowledgeFlags(&cfg)...)
	flags = append(flags, retrievalFlags(&cfg)...)
	flags = append(flags, logFlags(&logCfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Show the nearest catalog records and knowledge chunks with their distances",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.apply(ctx)

			if query == "" {
				query = strings.Join(c.Args().Slice(), " ")
			}
			if strings.TrimSpace(query) == "" {
				return goerr.New("query is required")
			}

			ix, err := cfg.newIndexes(ctx)
			if err != nil {
				return err
			}

			records, err := ix.catalog.Search(ctx, query, int(limit))
			if err != nil {
				return err
			}
			chunks, err := ix.knowledge.Search(ctx, query, int(limit))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			printCatalogHits(w, records, ix.catalog.Threshold())
			fmt.Fprintln(w)
			printKnowledgeHits(w, chunks, cfg.knowledgeThreshold)
			return nil
		},
	}
}

func within(distance, threshold float64) string {
	if distance < threshold {
		return "match"
	}
	return "-"
}

func printCatalogHits(w io.Writer, hits []catalog.Hit, threshold float64) {
	fmt.Fprintf(w, "Catalog (threshold %.2f):\n", threshold)
	if len(hits) == 0 {
		fmt.Fprintf(w, "  no records\n")
	}
	for i, h := range hits {
		var label string
		switch r := h.Record.(type) {
		case *model.Food:
			label = fmt.Sprintf("%s (%.0f kcal / %.0fg)", r.Name, r.Calories, r.ReferenceGrams)
		case *model.Exercise:
			label = r.EmbeddingText()
		}
		fmt.Fprintf(w, "%3d. [%s] %s  distance=%.4f  %s\n", i+1, h.Record.Kind(), label, h.Distance, within(h.Distance, threshold))
	}
}

func printKnowledgeHits(w io.Writer, hits []knowledge.Hit, threshold float64) {
	fmt.Fprintf(w, "Knowledge (threshold %.2f):\n", threshold)
	if len(hits) == 0 {
		fmt.Fprintf(w, "  %s\n", knowledge.NotLoadedMessage)
	}
	for i, h := range hits {
		fmt.Fprintf(w, "%3d. [%s] %s  distance=%.4f  %s\n", i+1, h.Chunk.Source, preview(h.Chunk.Text, 80), h.Distance, within(h.Distance, threshold))
	}
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
