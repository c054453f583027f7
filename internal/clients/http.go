// Package clients contains the HTTP implementations of the external
// service interfaces the forward runner depends on: admission,
// synthesizer, resolver, worker transport, scoring oracle, report sink
// and weight submission. Each client wraps the shared base client and
// speaks plain JSON over HTTP.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/condenses/validator/internal/signer"
)

// base is the shared HTTP plumbing for every service client. It owns
// one http.Client with a tuned transport so connections are pooled
// across all services. When a signer is set, every request carries the
// signed identity headers.
type base struct {
	httpClient *http.Client
	signer     *signer.Signer
}

func newBase(timeout time.Duration, s *signer.Signer) *base {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &base{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		signer: s,
	}
}

// postJSON marshals reqBody, POSTs it to url and unmarshals the
// response into respBody. A non-2xx status is an error carrying the
// response body for diagnosis. respBody may be nil when the caller
// only cares about the status.
func (b *base) postJSON(ctx context.Context, url string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	b.sign(req)

	return b.do(req, respBody)
}

// getJSON GETs url and unmarshals the response into respBody.
func (b *base) getJSON(ctx context.Context, url string, respBody interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	b.sign(req)

	return b.do(req, respBody)
}

func (b *base) sign(req *http.Request) {
	if b.signer == nil {
		return
	}
	for name, value := range b.signer.Headers() {
		req.Header.Set(name, value)
	}
}

func (b *base) do(req *http.Request, respBody interface{}) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// Close releases pooled connections.
func (b *base) Close() {
	b.httpClient.CloseIdleConnections()
}
