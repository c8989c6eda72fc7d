package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/pipeline"
	"github.com/bluenorth/prospect-cli/pkg/notion"
)

var (
	batchCSVPath    string
	batchFromNotion bool
	batchRetryDLQ   bool
	batchLimit      int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Discover companies in bulk from a CSV file or the Notion queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		modes := 0
		for _, on := range []bool{batchCSVPath != "", batchFromNotion, batchRetryDLQ} {
			if on {
				modes++
			}
		}
		if modes != 1 {
			return eris.New("exactly one of --csv, --from-notion, --retry-dlq is required")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		switch {
		case batchRetryDLQ:
			outcome, err := env.Pipeline.RetryDLQ(ctx)
			if err != nil {
				return eris.Wrap(err, "retry dlq")
			}
			return printOutcome(outcome)

		case batchFromNotion:
			if env.Notion == nil || cfg.Notion.CompanyDB == "" {
				return eris.New("notion token and PROSPECT_NOTION_COMPANY_DB are required for --from-notion")
			}
			queued, err := notion.QueryQueuedCompanies(ctx, env.Notion, cfg.Notion.CompanyDB)
			if err != nil {
				return eris.Wrap(err, "query queued companies")
			}
			return processQueued(ctx, env, queued, batchLimit)

		default:
			companies, err := readCompanyCSV(batchCSVPath)
			if err != nil {
				return err
			}
			if batchLimit > 0 && len(companies) > batchLimit {
				companies = companies[:batchLimit]
			}
			outcome, err := env.Pipeline.RunBatch(ctx, companies)
			if err != nil {
				return eris.Wrap(err, "batch run")
			}
			return printOutcome(outcome)
		}
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSVPath, "csv", "", "CSV file with name,website,location columns")
	batchCmd.Flags().BoolVar(&batchFromNotion, "from-notion", false, "pull Queued companies from the Notion company database")
	batchCmd.Flags().BoolVar(&batchRetryDLQ, "retry-dlq", false, "re-run transient dead letter entries whose backoff elapsed")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of companies to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// companyRow is one CSV input line. Column matching is by header name.
type companyRow struct {
	Name     string `csv:"name"`
	Website  string `csv:"website"`
	Location string `csv:"location"`
}

// readCompanyCSV loads company identities from a local CSV file.
func readCompanyCSV(path string) ([]model.CompanyIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}

	var rows []companyRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "parse csv")
	}

	companies := make([]model.CompanyIdentity, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, model.CompanyIdentity{
			Name:         strings.TrimSpace(row.Name),
			KnownWebsite: strings.TrimSpace(row.Website),
			Location:     strings.ToLower(strings.TrimSpace(row.Location)),
		})
	}

	zap.L().Info("parsed csv", zap.Int("companies", len(companies)), zap.String("path", path))
	return companies, nil
}

// processQueued discovers Notion-queued companies concurrently and writes the
// outcome back to each page's Status. An individual failure marks its page
// Failed and never aborts the rest.
func processQueued(ctx context.Context, env *pipelineEnv, queued []notion.QueuedCompany, limit int) error {
	if len(queued) == 0 {
		zap.L().Info("no queued companies found")
		return nil
	}
	if limit > 0 && len(queued) > limit {
		queued = queued[:limit]
	}

	concurrency := cfg.Batch.MaxConcurrentCompanies
	if concurrency <= 0 {
		concurrency = 5
	}

	zap.L().Info("processing notion queue",
		zap.Int("companies", len(queued)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, qc := range queued {
		company := model.CompanyIdentity{
			Name:         qc.Name,
			KnownWebsite: qc.Website,
			Location:     strings.ToLower(qc.Location),
		}
		pageID := qc.PageID
		g.Go(func() error {
			log := zap.L().With(zap.String("company", company.Name))

			run, err := env.Pipeline.Run(gctx, company)
			if err != nil {
				failed.Add(1)
				log.Error("discovery failed", zap.Error(err))
				if sErr := notion.SetPageStatus(gctx, env.Notion, pageID, "Failed"); sErr != nil {
					log.Warn("failed to update notion status to Failed", zap.Error(sErr))
				}
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			logRunOutcome(log, run)
			if sErr := notion.SetPageStatus(gctx, env.Notion, pageID, "Discovered"); sErr != nil {
				log.Warn("failed to update notion status to Discovered", zap.Error(sErr))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "notion batch")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

func logRunOutcome(log *zap.Logger, run *model.Run) {
	fields := []zap.Field{zap.String("run_id", run.ID)}
	if run.Result != nil {
		fields = append(fields, zap.String("website", run.Result.Website))
		if run.Result.Score != nil {
			fields = append(fields, zap.Int("score", run.Result.Score.Total))
		}
	}
	log.Info("discovery complete", fields...)
}

func printOutcome(outcome *pipeline.BatchOutcome) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
