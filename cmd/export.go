package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/pipeline"
)

var exportTo []string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Push a stored run's result to the configured export targets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load run")
		}
		if run.Result == nil {
			return eris.Errorf("run %s has no result to export", run.ID)
		}

		_, exporters, err := buildExporters()
		if err != nil {
			return err
		}
		exporters, err = selectExporters(exporters, exportTo)
		if err != nil {
			return err
		}
		if len(exporters) == 0 {
			return eris.New("no export targets configured")
		}

		var failed []string
		for _, exp := range exporters {
			if err := exp.Export(ctx, run.Company, run.Result); err != nil {
				failed = append(failed, exp.Name())
				zap.L().Error("export failed",
					zap.String("target", exp.Name()),
					zap.String("company", run.Company.Name),
					zap.Error(err),
				)
				continue
			}
			zap.L().Info("export complete",
				zap.String("target", exp.Name()),
				zap.String("company", run.Company.Name),
			)
		}

		if len(failed) > 0 {
			return eris.Errorf("export failed for: %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportTo, "to", nil, "export targets to use: notion, salesforce (default all configured)")
	rootCmd.AddCommand(exportCmd)
}

// selectExporters filters the configured exporters down to the named targets.
// Naming a target that is not configured is an error rather than a silent
// no-op.
func selectExporters(exporters []pipeline.Exporter, names []string) ([]pipeline.Exporter, error) {
	if len(names) == 0 {
		return exporters, nil
	}

	byName := make(map[string]pipeline.Exporter, len(exporters))
	for _, exp := range exporters {
		byName[exp.Name()] = exp
	}

	out := make([]pipeline.Exporter, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		exp, ok := byName[name]
		if !ok {
			return nil, eris.Errorf("export target %q is not configured", name)
		}
		out = append(out, exp)
	}
	return out, nil
}
