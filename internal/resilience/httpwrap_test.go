package resilience_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-bundle/internal/resilience"
)

func testClient(attempts int) resilience.HTTPClient {
	return resilience.HTTPClient{
		Client:      &http.Client{},
		Breaker:     resilience.NewBreaker(10, 0.9, time.Second),
		Target:      "test",
		BaseBackoff: time.Millisecond,
		MaxAttempts: attempts,
		Timeout:     time.Second,
	}
}

func TestDoRetriesServerErrorsWithBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"id":"v1","quantity":1}`, string(body))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testClient(3).DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]any{"id": "v1", "quantity": 1}, &out)
	require.NoError(t, err)
	require.True(t, out.OK)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDoJSONClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"description": "sold out"})
	}))
	defer srv.Close()

	err := testClient(3).DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]any{}, nil)
	var statusErr *resilience.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "sold out")
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDoOpenCircuitUsesFallback(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Hour)
	ctx := context.Background()
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	cl := testClient(1)
	cl.Breaker = breaker
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1:1/unused", nil)
	require.NoError(t, err)

	_, err = cl.Do(ctx, req)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)

	cl.Fallback = func(ctx context.Context, r *http.Request, cause error) (*http.Response, error) {
		require.ErrorIs(t, cause, resilience.ErrOpenCircuit)
		return &http.Response{StatusCode: http.StatusServiceUnavailable, Body: http.NoBody}, nil
	}
	resp, err := cl.Do(ctx, req)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDoHonoursContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cl := testClient(5)
	cl.BaseBackoff = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := cl.DoJSON(ctx, http.MethodGet, srv.URL, nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
