package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_Match(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Vredenburg 40, Utrecht, Netherlands", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{
			"lat": "52.0914",
			"lon": "5.1128",
			"display_name": "Vredenburg 40, Binnenstad, Utrecht, Netherlands",
			"class": "building",
			"type": "commercial"
		}]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))

	result, err := c.Geocode(context.Background(), "Vredenburg 40, Utrecht, Netherlands")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 52.0914, result.Latitude, 0.0001)
	assert.InDelta(t, 5.1128, result.Longitude, 0.0001)
	assert.Equal(t, "Vredenburg 40, Binnenstad, Utrecht, Netherlands", result.DisplayName)
	assert.Equal(t, "building", result.Class)
}

func TestGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))

	result, err := c.Geocode(context.Background(), "Nonexistent Street 999, Nowhere")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGeocode_EmptyAddress(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	result, err := c.Geocode(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, int32(0), called.Load(), "empty address should not reach the provider")
}

func TestGeocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := c.Geocode(context.Background(), "Vredenburg 40, Utrecht")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode")
}

func TestGeocode_MalformedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat": "not-a-number", "lon": "5.1"}]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := c.Geocode(context.Background(), "Vredenburg 40, Utrecht")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse latitude")
}

func TestGeocode_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Burst 1 with an already-canceled context makes the limiter fail fast.
	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0.001))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Geocode(ctx, "Vredenburg 40, Utrecht")
	require.Error(t, err)
}
