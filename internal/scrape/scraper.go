// Package scrape fetches company web pages and normalizes them into
// line-structured plaintext with their outbound links.
package scrape

import (
	"context"

	"github.com/bluenorth/prospect-cli/internal/model"
)

// Client fetches pages for the crawler and probes guessed domains for the
// resolver.
type Client interface {
	// Fetch retrieves a page, following redirects, and returns its title,
	// text, markup, and links. Errors cover network failures, bot blocks,
	// and non-2xx statuses.
	Fetch(ctx context.Context, url string) (*model.CrawledPage, error)

	// Probe performs a lightweight existence check. It reports the final
	// URL after redirects and whether the site answered successfully.
	Probe(ctx context.Context, url string) (string, bool)
}
