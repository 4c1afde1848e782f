package hasher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRemote(url string) *RemoteHasher {
	return NewRemote(RemoteConfig{
		URL:                 url,
		Timeout:             2 * time.Second,
		MaxRequests:         1,
		Interval:            time.Minute,
		OpenTimeout:         time.Minute,
		ConsecutiveFailures: 2,
	})
}

func TestRemoteHasherExtractsDigest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc", req.Text)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.HashEnvelope{
			Data:   &domain.HashPayload{Hash: abcDigest, Timestamp: "2024-01-01T00:00:00Z"},
			Status: http.StatusOK,
		})
	}))
	t.Cleanup(srv.Close)

	got, err := newTestRemote(srv.URL).ComputeDigest(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.Digest(abcDigest), got)
}

func TestRemoteHasherMissingHashIsFormatError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"timestamp":"now"},"status":200}`))
	}))
	t.Cleanup(srv.Close)

	_, err := newTestRemote(srv.URL).ComputeDigest(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrComputation)
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestRemoteHasherBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestRemote(srv.URL).ComputeDigest(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrComputation)
	assert.NotErrorIs(t, err, domain.ErrFormat)
}

func TestRemoteHasherOpensBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	h := newTestRemote(srv.URL)
	for i := 0; i < 2; i++ {
		_, err := h.ComputeDigest(context.Background(), "abc")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), h.State())

	_, err := h.ComputeDigest(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrComputation)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}
