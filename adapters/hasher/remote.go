package hasher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxResponseSize = 64 * 1024

// RemoteConfig describes an external endpoint that answers with a
// domain.HashEnvelope.
type RemoteConfig struct {
	URL                 string
	Timeout             time.Duration
	MaxRequests         uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

// RemoteHasher delegates hashing to an external service and pulls the digest
// out of its response with domain.ExtractDigestJSON.
type RemoteHasher struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

type remoteRequest struct {
	Text string `json:"text"`
}

func NewRemote(cfg RemoteConfig) *RemoteHasher {
	settings := gobreaker.Settings{
		Name:        "remote-hasher",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.With(zap.String("breaker", name)).Warn("Circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &RemoteHasher{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ComputeDigest posts text to the remote endpoint. Every failure, including a
// malformed response, is reported as domain.ErrComputation; a malformed
// response additionally matches domain.ErrFormat.
func (h *RemoteHasher) ComputeDigest(ctx context.Context, text string) (domain.Digest, error) {
	out, err := h.breaker.Execute(func() (interface{}, error) {
		return h.call(ctx, text)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrComputation, err)
	}
	return out.(domain.Digest), nil
}

func (h *RemoteHasher) call(ctx context.Context, text string) (domain.Digest, error) {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("remote hasher returned status %d", resp.StatusCode)
	}

	return domain.ExtractDigestJSON(raw)
}

// State exposes the breaker state for health reporting.
func (h *RemoteHasher) State() string {
	return h.breaker.State().String()
}
