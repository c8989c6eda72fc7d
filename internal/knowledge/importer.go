// Package knowledge maintains the job-postings knowledge base: it imports
// posting datasets into the store and derives per-company context from what
// is already stored.
package knowledge

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/fetcher"
	"github.com/bluenorth/prospect-cli/internal/model"
)

const importBatchSize = 500

// Dataset formats accepted by the importer.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatZIP  = "zip"
)

// PostingSink persists imported postings. Implementations upsert by posting
// ID and keep the earliest FirstSeenAt across re-imports.
type PostingSink interface {
	UpsertPostings(ctx context.Context, postings []model.JobPosting) (int, error)
}

// conditionalSource is the optional ETag-aware side of an HTTP source.
type conditionalSource interface {
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}

// ImportStats summarizes one dataset import.
type ImportStats struct {
	Format   string
	Read     int
	Imported int
	Skipped  int
}

// Importer loads posting datasets from http(s)/ftp URLs or local files.
type Importer struct {
	sink    PostingSink
	http    fetcher.Source
	ftp     fetcher.Source
	tempDir string
	now     func() time.Time
}

// ImporterOption adjusts an Importer.
type ImporterOption func(*Importer)

// WithHTTPSource replaces the HTTP download source.
func WithHTTPSource(src fetcher.Source) ImporterOption {
	return func(i *Importer) { i.http = src }
}

// WithFTPSource replaces the FTP download source.
func WithFTPSource(src fetcher.Source) ImporterOption {
	return func(i *Importer) { i.ftp = src }
}

// WithTempDir sets the directory for spooling downloads that need a file on
// disk.
func WithTempDir(dir string) ImporterOption {
	return func(i *Importer) { i.tempDir = dir }
}

// WithImportClock overrides the FirstSeenAt time source.
func WithImportClock(now func() time.Time) ImporterOption {
	return func(i *Importer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewImporter creates an Importer writing to sink.
func NewImporter(sink PostingSink, opts ...ImporterOption) *Importer {
	i := &Importer{
		sink: sink,
		http: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
		ftp:  fetcher.NewFTPFetcher(fetcher.FTPOptions{}),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import loads the dataset behind source into the store. format may be
// FormatAuto to infer it from the file extension. Rows without a company
// name or title are skipped. A malformed row aborts parsing; rows read
// before it are still persisted and counted in the returned stats.
func (i *Importer) Import(ctx context.Context, source, format string) (ImportStats, error) {
	format, err := resolveFormat(source, format)
	if err != nil {
		return ImportStats{}, err
	}
	stats := ImportStats{Format: format}

	switch format {
	case FormatCSV, FormatJSON, FormatXML:
		rc, err := i.open(ctx, source)
		if err != nil {
			return stats, err
		}
		defer rc.Close() //nolint:errcheck
		return i.consumeStream(ctx, stats, format, source, rc)

	case FormatXLSX, FormatZIP:
		path, cleanup, err := i.localize(ctx, source)
		if err != nil {
			return stats, err
		}
		defer cleanup()
		if format == FormatXLSX {
			return i.consumeXLSX(ctx, stats, path)
		}
		return i.consumeZIP(ctx, stats, path)

	default:
		return stats, eris.Errorf("knowledge: unsupported dataset format %q", format)
	}
}

// ImportIfChanged imports an HTTP dataset only when its ETag moved since the
// last import. It returns the current ETag and whether anything was fetched.
// Sources without ETag support fall back to a full import.
func (i *Importer) ImportIfChanged(ctx context.Context, source, format, etag string) (ImportStats, string, bool, error) {
	cs, ok := i.http.(conditionalSource)
	if !ok || !isHTTPURL(source) {
		stats, err := i.Import(ctx, source, format)
		return stats, "", true, err
	}

	format, err := resolveFormat(source, format)
	if err != nil {
		return ImportStats{}, "", false, err
	}
	stats := ImportStats{Format: format}

	body, newTag, changed, err := cs.DownloadIfChanged(ctx, source, etag)
	if err != nil {
		return stats, "", false, err
	}
	if !changed {
		zap.L().Info("knowledge: dataset unchanged, skipping import",
			zap.String("source", source), zap.String("etag", etag))
		return stats, newTag, false, nil
	}
	defer body.Close() //nolint:errcheck

	switch format {
	case FormatCSV, FormatJSON, FormatXML:
		stats, err = i.consumeStream(ctx, stats, format, source, body)
	default:
		path, cleanup, spillErr := i.spool(body, "dataset."+format)
		if spillErr != nil {
			return stats, newTag, true, spillErr
		}
		defer cleanup()
		if format == FormatXLSX {
			stats, err = i.consumeXLSX(ctx, stats, path)
		} else {
			stats, err = i.consumeZIP(ctx, stats, path)
		}
	}
	return stats, newTag, true, err
}

func (i *Importer) consumeStream(ctx context.Context, stats ImportStats, format, source string, r io.Reader) (ImportStats, error) {
	b := &batcher{sink: i.sink}

	var raws <-chan rawPosting
	var errs <-chan error
	switch format {
	case FormatCSV:
		delim := ','
		if strings.HasSuffix(strings.ToLower(trimQuery(source)), ".tsv") {
			delim = '\t'
		}
		rows, rowErrs := fetcher.DecodeCSV[csvRow](ctx, r, fetcher.CSVOptions{Delimiter: delim})
		raws, errs = convertChannel(rows, csvRow.raw), rowErrs
	case FormatJSON:
		rows, rowErrs := fetcher.DecodeJSONArray[jsonRow](ctx, r)
		raws, errs = convertChannel(rows, jsonRow.raw), rowErrs
	case FormatXML:
		rows, rowErrs := fetcher.StreamXML[xmlRow](ctx, r, "posting")
		raws, errs = convertChannel(rows, xmlRow.raw), rowErrs
	}

	for raw := range raws {
		stats.Read++
		p, ok := i.record(raw)
		if !ok {
			stats.Skipped++
			continue
		}
		if err := b.add(ctx, p); err != nil {
			stats.Imported = b.imported
			return stats, err
		}
	}
	parseErr := <-errs

	if err := b.flush(ctx); err != nil {
		stats.Imported = b.imported
		return stats, err
	}
	stats.Imported = b.imported

	i.logImport(source, stats)
	return stats, parseErr
}

func (i *Importer) consumeXLSX(ctx context.Context, stats ImportStats, path string) (ImportStats, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return stats, err
	}
	if len(rows) < 2 {
		return stats, nil
	}

	idx := headerIndex(rows[0])
	b := &batcher{sink: i.sink}

	for _, row := range rows[1:] {
		stats.Read++
		raw := rawPosting{
			id:       cell(row, idx, "id"),
			company:  cell(row, idx, "company_name", "company"),
			title:    cell(row, idx, "title"),
			location: cell(row, idx, "location"),
			country:  cell(row, idx, "country"),
			skills:   splitSkills(cell(row, idx, "skills")),
			source:   cell(row, idx, "source"),
			url:      cell(row, idx, "url"),
			postedAt: cell(row, idx, "posted_at", "posted_date"),
		}
		p, ok := i.record(raw)
		if !ok {
			stats.Skipped++
			continue
		}
		if err := b.add(ctx, p); err != nil {
			stats.Imported = b.imported
			return stats, err
		}
	}

	if err := b.flush(ctx); err != nil {
		stats.Imported = b.imported
		return stats, err
	}
	stats.Imported = b.imported

	i.logImport(path, stats)
	return stats, nil
}

func (i *Importer) consumeZIP(ctx context.Context, stats ImportStats, path string) (ImportStats, error) {
	dir, err := os.MkdirTemp(i.tempDir, "import-zip-*")
	if err != nil {
		return stats, eris.Wrap(err, "knowledge: create extract dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	extracted, err := fetcher.ExtractZIP(path, dir)
	if err != nil {
		return stats, err
	}

	for _, inner := range extracted {
		format, err := inferFormat(inner)
		if err != nil || format == FormatZIP {
			continue
		}
		return i.Import(ctx, inner, format)
	}
	return stats, eris.Errorf("knowledge: no importable file in archive %s", path)
}

func (i *Importer) logImport(source string, stats ImportStats) {
	zap.L().Info("knowledge: dataset import complete",
		zap.String("source", source),
		zap.String("format", stats.Format),
		zap.Int("read", stats.Read),
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
	)
}

// open returns a reader for a local path or a remote URL.
func (i *Importer) open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case isHTTPURL(source):
		return i.http.Download(ctx, source)
	case strings.HasPrefix(source, "ftp://"):
		return i.ftp.Download(ctx, source)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, eris.Wrapf(err, "knowledge: open dataset %s", source)
		}
		return f, nil
	}
}

// localize makes sure the dataset exists as a file on disk and returns its
// path with a cleanup func.
func (i *Importer) localize(ctx context.Context, source string) (string, func(), error) {
	noop := func() {}
	if !isHTTPURL(source) && !strings.HasPrefix(source, "ftp://") {
		return source, noop, nil
	}

	dir, err := os.MkdirTemp(i.tempDir, "import-*")
	if err != nil {
		return "", noop, eris.Wrap(err, "knowledge: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	name := filepath.Base(trimQuery(source))
	if name == "" || name == "." || name == "/" {
		name = "dataset"
	}
	path := filepath.Join(dir, name)

	src := i.http
	if strings.HasPrefix(source, "ftp://") {
		src = i.ftp
	}
	if _, err := src.DownloadToFile(ctx, source, path); err != nil {
		cleanup()
		return "", noop, err
	}
	return path, cleanup, nil
}

// spool writes a stream to a temp file for formats that need one.
func (i *Importer) spool(r io.Reader, name string) (string, func(), error) {
	noop := func() {}
	dir, err := os.MkdirTemp(i.tempDir, "import-*")
	if err != nil {
		return "", noop, eris.Wrap(err, "knowledge: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", noop, eris.Wrap(err, "knowledge: create temp file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		cleanup()
		return "", noop, eris.Wrap(err, "knowledge: spool dataset")
	}
	_ = f.Close()
	return path, cleanup, nil
}

// record converts a parsed row to a stored posting. Rows without a company
// name or title are not importable.
func (i *Importer) record(raw rawPosting) (model.JobPosting, bool) {
	company := strings.TrimSpace(raw.company)
	title := strings.TrimSpace(raw.title)
	if company == "" || title == "" {
		return model.JobPosting{}, false
	}

	p := model.JobPosting{
		ID:          strings.TrimSpace(raw.id),
		CompanyName: company,
		Title:       title,
		Location:    strings.TrimSpace(raw.location),
		Country:     strings.TrimSpace(raw.country),
		Skills:      raw.skills,
		Source:      strings.TrimSpace(raw.source),
		URL:         strings.TrimSpace(raw.url),
		PostedAt:    parseWhen(raw.postedAt),
		FirstSeenAt: i.now().UTC(),
	}
	if p.ID == "" {
		p.ID = syntheticID(p)
	}
	return p, true
}

// syntheticID derives a stable posting ID so re-imports of the same dataset
// upsert instead of duplicating.
func syntheticID(p model.JobPosting) string {
	key := strings.ToLower(p.CompanyName) + "|" + strings.ToLower(p.Title) + "|" + p.URL
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h[:8])
}

// batcher accumulates postings and upserts them in chunks.
type batcher struct {
	sink     PostingSink
	buf      []model.JobPosting
	imported int
}

func (b *batcher) add(ctx context.Context, p model.JobPosting) error {
	b.buf = append(b.buf, p)
	if len(b.buf) >= importBatchSize {
		return b.flush(ctx)
	}
	return nil
}

func (b *batcher) flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	n, err := b.sink.UpsertPostings(ctx, b.buf)
	if err != nil {
		return eris.Wrap(err, "knowledge: upsert postings")
	}
	b.imported += n
	b.buf = b.buf[:0]
	return nil
}

// rawPosting is the format-neutral shape every parser converts into.
type rawPosting struct {
	id       string
	company  string
	title    string
	location string
	country  string
	skills   []string
	source   string
	url      string
	postedAt string
}

type csvRow struct {
	ID          string `csv:"id"`
	Company     string `csv:"company"`
	CompanyName string `csv:"company_name"`
	Title       string `csv:"title"`
	Location    string `csv:"location"`
	Country     string `csv:"country"`
	Skills      string `csv:"skills"`
	Source      string `csv:"source"`
	URL         string `csv:"url"`
	PostedAt    string `csv:"posted_at"`
	PostedDate  string `csv:"posted_date"`
}

func (r csvRow) raw() rawPosting {
	return rawPosting{
		id:       r.ID,
		company:  coalesce(r.CompanyName, r.Company),
		title:    r.Title,
		location: r.Location,
		country:  r.Country,
		skills:   splitSkills(r.Skills),
		source:   r.Source,
		url:      r.URL,
		postedAt: coalesce(r.PostedAt, r.PostedDate),
	}
}

type jsonRow struct {
	ID          string   `json:"id"`
	Company     string   `json:"company"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	Country     string   `json:"country"`
	Skills      []string `json:"skills"`
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	PostedAt    string   `json:"posted_at"`
}

func (r jsonRow) raw() rawPosting {
	return rawPosting{
		id:       r.ID,
		company:  coalesce(r.CompanyName, r.Company),
		title:    r.Title,
		location: r.Location,
		country:  r.Country,
		skills:   cleanSkills(r.Skills),
		source:   r.Source,
		url:      r.URL,
		postedAt: r.PostedAt,
	}
}

type xmlRow struct {
	ID       string   `xml:"id"`
	Company  string   `xml:"company"`
	Title    string   `xml:"title"`
	Location string   `xml:"location"`
	Country  string   `xml:"country"`
	Skills   []string `xml:"skills>skill"`
	Source   string   `xml:"source"`
	URL      string   `xml:"url"`
	PostedAt string   `xml:"posted_at"`
}

func (r xmlRow) raw() rawPosting {
	return rawPosting{
		id:       r.ID,
		company:  r.Company,
		title:    r.Title,
		location: r.Location,
		country:  r.Country,
		skills:   cleanSkills(r.Skills),
		source:   r.Source,
		url:      r.URL,
		postedAt: r.PostedAt,
	}
}

// convertChannel adapts a typed parser channel to rawPosting.
func convertChannel[T any](in <-chan T, conv func(T) rawPosting) <-chan rawPosting {
	out := make(chan rawPosting, 64)
	go func() {
		defer close(out)
		for item := range in {
			out <- conv(item)
		}
	}()
	return out
}

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
}

// parseWhen parses the posting date formats seen in the wild. Unparseable
// values yield the zero time, which scores zero recency.
func parseWhen(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// splitSkills splits a packed skills cell. Semicolon is the primary
// separator; comma-only cells fall back to comma.
func splitSkills(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	}
	return cleanSkills(strings.Split(s, sep))
}

func cleanSkills(skills []string) []string {
	var out []string
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

// cell returns the named column, trying aliases in order.
func cell(row []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := idx[name]; ok && i < len(row) {
			if v := row[i]; v != "" {
				return v
			}
		}
	}
	return ""
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolveFormat(source, format string) (string, error) {
	if format != "" && format != FormatAuto {
		return format, nil
	}
	return inferFormat(source)
}

func inferFormat(source string) (string, error) {
	switch strings.ToLower(filepath.Ext(trimQuery(source))) {
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".xml":
		return FormatXML, nil
	case ".zip":
		return FormatZIP, nil
	default:
		return "", eris.Errorf("knowledge: cannot infer dataset format from %q, specify it explicitly", source)
	}
}

func trimQuery(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		return u.Path
	}
	return source
}

func isHTTPURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
