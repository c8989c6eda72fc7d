package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluenorth/prospect-cli/internal/config"
	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{DeadlineSecs: 30},
		Batch:    config.BatchConfig{MaxConcurrentCompanies: 4, DLQMaxRetries: 3},
	}
}

// phaseByName finds a named phase in a run result, failing the test when it
// is absent.
func phaseByName(t *testing.T, result *model.RunResult, name string) model.PhaseResult {
	t.Helper()
	require.NotNil(t, result)
	for _, phase := range result.Phases {
		if phase.Name == name {
			return phase
		}
	}
	t.Fatalf("phase %q not found among %d phases", name, len(result.Phases))
	return model.PhaseResult{}
}
