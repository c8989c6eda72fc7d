package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/scoring"
)

var (
	scoreCSVPath  string
	scoreRubric   string
	scoreCategory string
	scoreTop      int
	scoreUseStore bool
	scoreJSON     bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score company records against the prospect rubric",
	Long: `Scores company attribute records from a CSV file without running discovery.

The CSV needs a name column; company_type, industry, size_band, tech_stack
(semicolon separated), job_count, and first_observed (YYYY-MM-DD) are
optional. With --use-store the job count comes from the stored posting
knowledge base instead of the CSV.

Examples:
  # Score a CSV with the built-in rubric
  prospect-cli score --csv records.csv

  # Custom rubric, only hot prospects, top 20
  prospect-cli score --csv records.csv --rubric rubric.yaml --category "Hot Prospect" --top 20`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rubric := scoring.DefaultRubric()
		if scoreRubric != "" {
			var err error
			rubric, err = scoring.LoadRubric(scoreRubric)
			if err != nil {
				return eris.Wrap(err, "load rubric")
			}
			zap.L().Info("using rubric override",
				zap.String("path", scoreRubric),
				zap.String("hash", scoring.RubricHash(rubric)),
			)
		}

		records, err := readScoreCSV(scoreCSVPath)
		if err != nil {
			return err
		}

		if scoreUseStore {
			if err := fillJobCounts(ctx, records); err != nil {
				return err
			}
		}

		engine := scoring.NewEngine(rubric)
		scored := engine.ScoreBatch(records)

		if scoreCategory != "" {
			scored = filterByCategory(scored, model.Category(scoreCategory))
		}
		if scoreTop > 0 && len(scored) > scoreTop {
			scored = scored[:scoreTop]
		}

		if scoreJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scored)
		}

		formatScores(os.Stdout, scored)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCSVPath, "csv", "", "CSV file of company records (required)")
	scoreCmd.Flags().StringVar(&scoreRubric, "rubric", "", "YAML rubric override file")
	scoreCmd.Flags().StringVar(&scoreCategory, "category", "", `keep one category only, e.g. "Hot Prospect"`)
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "keep the N highest-scoring records (0 = all)")
	scoreCmd.Flags().BoolVar(&scoreUseStore, "use-store", false, "take job counts from the stored knowledge base")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print JSON instead of a table")
	_ = scoreCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(scoreCmd)
}

// scoreRow is one CSV record line.
type scoreRow struct {
	Name          string `csv:"name"`
	CompanyType   string `csv:"company_type"`
	Industry      string `csv:"industry"`
	SizeBand      string `csv:"size_band"`
	TechStack     string `csv:"tech_stack"`
	JobCount      int    `csv:"job_count"`
	FirstObserved string `csv:"first_observed"`
}

// readScoreCSV loads company records from a local CSV file. Rows without a
// name are dropped.
func readScoreCSV(path string) ([]model.CompanyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read csv")
	}

	var rows []scoreRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "parse csv")
	}

	records := make([]model.CompanyRecord, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		records = append(records, model.CompanyRecord{
			Name:            name,
			CompanyType:     strings.TrimSpace(row.CompanyType),
			Industry:        strings.TrimSpace(row.Industry),
			SizeBand:        strings.TrimSpace(row.SizeBand),
			TechStack:       splitList(row.TechStack),
			JobCount:        row.JobCount,
			FirstObservedAt: parseDate(row.FirstObserved),
		})
	}
	return records, nil
}

// fillJobCounts replaces each record's job count with the stored posting
// count for that company name.
func fillJobCounts(ctx context.Context, records []model.CompanyRecord) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	for i := range records {
		count, err := st.CountPostingsByCompany(ctx, records[i].Name)
		if err != nil {
			return eris.Wrap(err, fmt.Sprintf("count postings for %s", records[i].Name))
		}
		records[i].JobCount = count
	}
	return nil
}

func filterByCategory(scored []model.ScoredCompany, category model.Category) []model.ScoredCompany {
	out := scored[:0]
	for _, sc := range scored {
		if sc.Score.Category == category {
			out = append(out, sc)
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// formatScores writes a tabular score listing to w, highest total first.
func formatScores(out io.Writer, scored []model.ScoredCompany) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTOTAL\tCATEGORY\tTECH\tTYPE\tINDUSTRY\tSIZE\tACTIVITY\tRECENCY")

	for _, sc := range scored {
		name := sc.Company.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			name,
			sc.Score.Total,
			sc.Score.Category,
			sc.Score.Tech,
			sc.Score.CompanyType,
			sc.Score.Industry,
			sc.Score.Size,
			sc.Score.Activity,
			sc.Score.Recency,
		)
	}
	_ = w.Flush()
}
