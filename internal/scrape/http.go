package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/bluenorth/prospect-cli/internal/model"
)

const (
	maxBodyBytes  = 512 * 1024
	probeBodyCap  = 8 * 1024
	minPageLength = 100
)

// HTTPClient is the plain net/http implementation of Client. It applies a
// per-host rate limit so concurrent crawls stay polite toward a single site.
type HTTPClient struct {
	client   *http.Client
	ua       string
	hostRate rate.Limit
	burst    int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.client = c }
}

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.client.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) { h.ua = ua }
}

// WithHostRateLimit caps requests per second against any single host.
func WithHostRateLimit(perSecond float64) Option {
	return func(h *HTTPClient) {
		if perSecond > 0 {
			h.hostRate = rate.Limit(perSecond)
			h.burst = 1
			if perSecond >= 2 {
				h.burst = 2
			}
		}
	}
}

// NewHTTPClient creates an HTTPClient with sensible defaults.
func NewHTTPClient(opts ...Option) *HTTPClient {
	h := &HTTPClient{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		ua:       "Mozilla/5.0 (compatible; ProspectBot/1.0)",
		hostRate: rate.Inf,
		burst:    1,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch retrieves a page, converts it to line-structured text, and collects
// its links resolved against the final URL.
func (h *HTTPClient) Fetch(ctx context.Context, targetURL string) (*model.CrawledPage, error) {
	if err := h.waitHost(ctx, targetURL); err != nil {
		return nil, eris.Wrap(err, "scrape: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", h.ua)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("scrape: blocked (%s)", blockType)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("scrape: status %d", resp.StatusCode)
	}
	if len(body) < minPageLength {
		return nil, eris.New("scrape: empty page")
	}

	final := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	base, _ := url.Parse(final)

	title, text, links := parsePage(body, base)

	return &model.CrawledPage{
		URL:        targetURL,
		FinalURL:   final,
		Title:      title,
		Text:       text,
		HTML:       string(body),
		Links:      links,
		StatusCode: resp.StatusCode,
	}, nil
}

// Probe checks whether a URL answers at all. HEAD is tried first; hosts that
// reject HEAD get a small GET. Redirects are followed and the final URL is
// reported so a guess of "acme.com" can resolve to "www.acme.com".
func (h *HTTPClient) Probe(ctx context.Context, targetURL string) (string, bool) {
	if err := h.waitHost(ctx, targetURL); err != nil {
		return "", false
	}

	resp, err := h.do(ctx, http.MethodHead, targetURL)
	if err == nil {
		final, ok := probeResult(resp)
		_ = resp.Body.Close()
		if ok {
			return final, true
		}
		// Some servers answer HEAD with 4xx but serve GET fine.
		if resp.StatusCode != http.StatusMethodNotAllowed &&
			resp.StatusCode != http.StatusForbidden &&
			resp.StatusCode != http.StatusNotImplemented {
			return "", false
		}
	}

	resp, err = h.do(ctx, http.MethodGet, targetURL)
	if err != nil {
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, probeBodyCap))

	return probeResult(resp)
}

func (h *HTTPClient) do(ctx context.Context, method, targetURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.ua)
	return h.client.Do(req)
}

func probeResult(resp *http.Response) (string, bool) {
	if resp.StatusCode >= 400 {
		return "", false
	}
	final := ""
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return final, final != ""
}

func (h *HTTPClient) waitHost(ctx context.Context, targetURL string) error {
	if h.hostRate == rate.Inf {
		return nil
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil
	}

	h.mu.Lock()
	lim, ok := h.limiters[host]
	if !ok {
		lim = rate.NewLimiter(h.hostRate, h.burst)
		h.limiters[host] = lim
	}
	h.mu.Unlock()

	return lim.Wait(ctx)
}
