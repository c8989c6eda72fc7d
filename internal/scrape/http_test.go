package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanPage = `<html><head><title>Acme Corp</title></head>
<body>
<nav><a href="/contact">Contact</a><a href="/about">About us</a>Menu items here</nav>
<h1>Welcome to Acme</h1>
<p>We build industrial machinery for the food sector.</p>
<p>Visit our offices in Utrecht for a demonstration of the full product line.</p>
<footer>Copyright 2026 Acme</footer>
</body></html>`

func TestHTTPClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(cleanPage))
	}))
	defer srv.Close()

	c := NewHTTPClient()
	page, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", page.Title)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, srv.URL, page.URL)
	assert.Contains(t, page.Text, "Welcome to Acme")
	assert.Contains(t, page.Text, "industrial machinery")

	// Navigation and footer text is chrome, not content.
	assert.NotContains(t, page.Text, "Menu items")
	assert.NotContains(t, page.Text, "Copyright")

	// Their links still count.
	var urls []string
	for _, l := range page.Links {
		urls = append(urls, l.URL)
	}
	assert.Contains(t, urls, srv.URL+"/contact")
	assert.Contains(t, urls, srv.URL+"/about")
}

func TestHTTPClient_FetchFollowsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/home", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(cleanPage))
	}))
	defer srv.Close()

	c := NewHTTPClient()
	page, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/home", page.FinalURL)
	assert.Equal(t, srv.URL, page.URL)
}

func TestHTTPClient_Fetch404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_, _ = w.Write([]byte(`<html><body>Not found page with plenty of content to pass the length check</body></html>`))
	}))
	defer srv.Close()

	c := NewHTTPClient()
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestHTTPClient_FetchBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>Please complete the captcha to continue browsing this website today</body></html>`))
	}))
	defer srv.Close()

	c := NewHTTPClient()
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestHTTPClient_FetchEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	c := NewHTTPClient()
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestHTTPClient_ProbeHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := NewHTTPClient()
	final, ok := c.Probe(context.Background(), srv.URL)
	assert.True(t, ok)
	assert.Equal(t, srv.URL, final)
}

func TestHTTPClient_ProbeGetFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewHTTPClient()
	_, ok := c.Probe(context.Background(), srv.URL)
	assert.True(t, ok)
}

func TestHTTPClient_ProbeNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	c := NewHTTPClient()
	_, ok := c.Probe(context.Background(), srv.URL)
	assert.False(t, ok)
}

func TestHTTPClient_ProbeReportsFinalURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/landing", http.StatusFound)
			return
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := NewHTTPClient()
	final, ok := c.Probe(context.Background(), srv.URL)
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/landing", final)
}

func TestHTTPClient_HostRateLimit(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(200)
	}))
	defer srv.Close()

	c := NewHTTPClient(WithHostRateLimit(1000))
	for i := 0; i < 3; i++ {
		_, ok := c.Probe(context.Background(), srv.URL)
		require.True(t, ok)
	}
	assert.Equal(t, 3, hits)
}
