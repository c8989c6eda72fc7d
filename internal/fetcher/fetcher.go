// Package fetcher downloads job-posting datasets over HTTP and FTP and
// parses the formats they ship in: CSV, XLSX, JSON, XML, optionally wrapped
// in a ZIP archive.
package fetcher

import (
	"context"
	"io"
)

// Source downloads a remote dataset file.
type Source interface {
	// Download fetches the URL and returns the response body. The caller
	// must close it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	// Used for formats that need a seekable file on disk.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
