package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/model"
)

var (
	discoverWebsite  string
	discoverLocation string
	discoverNarrate  bool
	discoverBrief    bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <company name>",
	Short: "Run discovery for a single company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if discoverNarrate {
			cfg.Pipeline.Narrate = true
		}
		if discoverBrief {
			cfg.Pipeline.Brief = true
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		company := model.CompanyIdentity{
			Name:         args[0],
			KnownWebsite: discoverWebsite,
			Location:     discoverLocation,
		}

		run, err := env.Pipeline.Run(ctx, company)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		fields := []zap.Field{
			zap.String("company", company.Name),
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
		}
		if run.Result != nil {
			fields = append(fields,
				zap.String("website", run.Result.Website),
				zap.Int("pages_crawled", run.Result.PagesCrawled),
				zap.Float64("cost_usd", run.Result.CostUSD),
			)
			if run.Result.Score != nil {
				fields = append(fields,
					zap.Int("score", run.Result.Score.Total),
					zap.String("category", string(run.Result.Score.Category)),
				)
			}
		}
		zap.L().Info("discovery complete", fields...)

		// Print the run JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverWebsite, "website", "", "known website URL, skips search resolution")
	discoverCmd.Flags().StringVar(&discoverLocation, "location", "", "country hint, e.g. be or nl")
	discoverCmd.Flags().BoolVar(&discoverNarrate, "narrate", false, "write an AI contact summary (needs an Anthropic key)")
	discoverCmd.Flags().BoolVar(&discoverBrief, "brief", false, "write an AI market brief (needs a Perplexity key)")
	rootCmd.AddCommand(discoverCmd)
}
