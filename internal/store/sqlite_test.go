package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenorth/prospect-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testPosting(id, company, title string) model.JobPosting {
	return model.JobPosting{
		ID:          id,
		CompanyName: company,
		Title:       title,
		FirstSeenAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

// --- Postings ---

func TestSQLite_Postings_UpsertKeepsEarliestFirstSeen(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	early := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	p := testPosting("p-1", "Acme", "Data Engineer")
	p.FirstSeenAt = early
	_, err := st.UpsertPostings(ctx, []model.JobPosting{p})
	require.NoError(t, err)

	// Re-import later keeps the earlier first_seen_at.
	p.FirstSeenAt = late
	_, err = st.UpsertPostings(ctx, []model.JobPosting{p})
	require.NoError(t, err)

	got, err := st.RecentPostingsByCompany(ctx, "Acme", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].FirstSeenAt.Equal(early), "first_seen_at should stay %v, got %v", early, got[0].FirstSeenAt)
}

func TestSQLite_Postings_UpsertReplacesContent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := testPosting("p-1", "Acme", "Data Engineer")
	p.Skills = []string{"bigquery"}
	_, err := st.UpsertPostings(ctx, []model.JobPosting{p})
	require.NoError(t, err)

	p.Title = "Senior Data Engineer"
	p.Skills = []string{"bigquery", "dataflow"}
	_, err = st.UpsertPostings(ctx, []model.JobPosting{p})
	require.NoError(t, err)

	got, err := st.RecentPostingsByCompany(ctx, "Acme", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Senior Data Engineer", got[0].Title)
	assert.Equal(t, []string{"bigquery", "dataflow"}, got[0].Skills)
}

func TestSQLite_Postings_CompanyMatchIsCaseInsensitive(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertPostings(ctx, []model.JobPosting{testPosting("p-1", "Acme Retail BV", "Data Engineer")})
	require.NoError(t, err)

	got, err := st.RecentPostingsByCompany(ctx, "ACME retail bv", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	count, err := st.CountPostingsByCompany(ctx, "acme RETAIL bv")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLite_Postings_NewestFirstWithUnknownDatesLast(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	older := testPosting("p-old", "Acme", "Analyst")
	older.PostedAt = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	newer := testPosting("p-new", "Acme", "Engineer")
	newer.PostedAt = time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	undated := testPosting("p-undated", "Acme", "Manager")

	_, err := st.UpsertPostings(ctx, []model.JobPosting{older, undated, newer})
	require.NoError(t, err)

	got, err := st.RecentPostingsByCompany(ctx, "Acme", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "p-new", got[0].ID)
	assert.Equal(t, "p-old", got[1].ID)
	assert.Equal(t, "p-undated", got[2].ID)
	assert.True(t, got[2].PostedAt.IsZero())

	limited, err := st.RecentPostingsByCompany(ctx, "Acme", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "p-new", limited[0].ID)
}

func TestSQLite_Postings_EmptyBatch(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.UpsertPostings(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_Postings_CountIgnoresOtherCompanies(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertPostings(ctx, []model.JobPosting{
		testPosting("p-1", "Acme", "Engineer"),
		testPosting("p-2", "Acme", "Analyst"),
		testPosting("p-3", "Globex", "Engineer"),
	})
	require.NoError(t, err)

	count, err := st.CountPostingsByCompany(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// --- Crawl cache ---

func TestSQLite_CrawlCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	pages := []model.CrawledPage{{URL: "https://old.example", StatusCode: 200}}
	// Set with already-expired TTL (-1 hour in the past).
	require.NoError(t, st.SetCachedCrawl(ctx, "https://old.example", pages, -1*time.Hour))

	cached, err := st.GetCachedCrawl(ctx, "https://old.example")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestSQLite_CrawlCache_NewestEntryWins(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := []model.CrawledPage{{URL: "https://acme.example", Title: "v1"}}
	second := []model.CrawledPage{{URL: "https://acme.example", Title: "v2"}}
	require.NoError(t, st.SetCachedCrawl(ctx, "https://acme.example", first, time.Hour))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, st.SetCachedCrawl(ctx, "https://acme.example", second, time.Hour))

	cached, err := st.GetCachedCrawl(ctx, "https://acme.example")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Len(t, cached.Pages, 1)
	assert.Equal(t, "v2", cached.Pages[0].Title)
}

func TestSQLite_CrawlCache_DeleteExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	pages := []model.CrawledPage{{URL: "https://a.example"}}
	require.NoError(t, st.SetCachedCrawl(ctx, "https://a.example", pages, -1*time.Hour))
	require.NoError(t, st.SetCachedCrawl(ctx, "https://b.example", pages, -1*time.Hour))
	require.NoError(t, st.SetCachedCrawl(ctx, "https://c.example", pages, time.Hour))

	n, err := st.DeleteExpiredCrawls(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	live, err := st.GetCachedCrawl(ctx, "https://c.example")
	require.NoError(t, err)
	assert.NotNil(t, live)
}

// --- Meta ---

func TestSQLite_Meta_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetMeta(ctx, "dataset_etag:feed", `"v1"`))
	require.NoError(t, st.SetMeta(ctx, "dataset_etag:feed", `"v2"`))

	got, err := st.GetMeta(ctx, "dataset_etag:feed")
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, got)
}

// --- Runs ---

func TestSQLite_UpdateRunStatus_NonexistentRun(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "no-such-run", model.RunStatusComplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLite_CompletePhase_NonexistentPhase(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompletePhase(context.Background(), "no-such-phase", &model.PhaseResult{
		Name:   "resolve",
		Status: model.PhaseStatusComplete,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phase not found")
}

func TestSQLite_GetRun_CorruptCompanyJSON(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := st.db.ExecContext(ctx,
		`INSERT INTO runs (id, company, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"corrupt", "{not json", "queued", now, now,
	)
	require.NoError(t, err)

	_, err = st.GetRun(ctx, "corrupt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal company")
}

func TestSQLite_ListRuns_LimitAndOffset(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := st.CreateRun(ctx, model.CompanyIdentity{Name: name})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	page, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := st.ListRuns(ctx, RunFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestSQLite_ListRuns_CreatedAfter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx, model.CompanyIdentity{Name: "Old Co"})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	cutoff := time.Now().UTC()
	time.Sleep(20 * time.Millisecond)

	recent, err := st.CreateRun(ctx, model.CompanyIdentity{Name: "New Co"})
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{CreatedAfter: cutoff})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, recent.ID, runs[0].ID)

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// --- Lifecycle ---

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Migrate(ctx))
}

func TestNewSQLite_CloseAndReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, model.CompanyIdentity{Name: "Persistent Co"})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persistent Co", got.Company.Name)
}
