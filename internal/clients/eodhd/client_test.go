package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/simvest/internal/interfaces"
)

func TestGetEOD_ParsesAndSortsBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/AAPL.US", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api_token"))
		assert.Equal(t, "json", q.Get("fmt"))
		assert.Equal(t, "2024-03-01", q.Get("from"))
		assert.Equal(t, "2025-03-01", q.Get("to"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2025-02-28","open":"241.1","high":242.0,"low":238.5,"close":"241.84","volume":100},
			{"date":"2025-02-27","open":239.4,"high":242.46,"low":237.06,"close":237.3,"volume":90},
			{"date":"bogus","open":1,"high":1,"low":1,"close":1}
		]`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	bars, err := client.GetEOD(context.Background(), "AAPL", interfaces.WithDateRange(from, to))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "2025-02-27", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, 239.4, bars[0].Open)
	assert.Equal(t, "2025-02-28", bars[1].Date.Format("2006-01-02"))
	assert.Equal(t, 241.1, bars[1].Open)
	assert.Equal(t, 241.84, bars[1].Close)
}

func TestGetEOD_DottedSymbol(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	bars, err := client.GetEOD(context.Background(), "brk.b")
	require.NoError(t, err)
	assert.Empty(t, bars)
	assert.Equal(t, "/eod/BRK-B.US", gotPath)
}

func TestGetEOD_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("quota exceeded"))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.GetEOD(context.Background(), "AAPL")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "quota exceeded", apiErr.Message)
}

func TestFlexFloat64(t *testing.T) {
	var f flexFloat64
	require.NoError(t, f.UnmarshalJSON([]byte(`"12.5"`)))
	assert.Equal(t, flexFloat64(12.5), f)
	require.NoError(t, f.UnmarshalJSON([]byte(`"N/A"`)))
	assert.Equal(t, flexFloat64(0), f)
	assert.Error(t, f.UnmarshalJSON([]byte(`{}`)))
}
