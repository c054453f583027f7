package clients

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/internal/signer"
)

// AdmissionClient talks to the admission controller. It implements the
// forward runner's Admission interface and doubles as the weight
// aggregator's Source, since the controller is the authority on the
// current score table.
//
// Requests are paced by a token-bucket limiter so concurrent cycles
// cannot hammer the controller; the controller also rate limits server
// side, but tripping that turns into failed cycles.
type AdmissionClient struct {
	*base
	baseURL string
	limiter *rate.Limiter
}

// admission requests per second across all cycles.
const admissionRequestsPerSec = 10

func NewAdmissionClient(baseURL string, timeout time.Duration, s *signer.Signer) *AdmissionClient {
	return &AdmissionClient{
		base:    newBase(timeout, s),
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(admissionRequestsPerSec), admissionRequestsPerSec),
	}
}

type grantRequest struct {
	Count                  int     `json:"count"`
	TopFraction            float64 `json:"top_fraction"`
	AcceptableConsumedRate float64 `json:"acceptable_consumed_rate"`
}

type grantResponse struct {
	WorkerIDs []protocol.WorkerID `json:"worker_ids"`
}

// GrantWorkers asks the controller for a batch of worker ids to probe
// this cycle.
func (c *AdmissionClient) GrantWorkers(ctx context.Context, count int, topFraction, acceptableConsumedRate float64) ([]protocol.WorkerID, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := grantRequest{
		Count:                  count,
		TopFraction:            topFraction,
		AcceptableConsumedRate: acceptableConsumedRate,
	}
	var resp grantResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/v1/grant", req, &resp); err != nil {
		return nil, fmt.Errorf("grant request failed: %w", err)
	}
	return resp.WorkerIDs, nil
}

type statRequest struct {
	WorkerID protocol.WorkerID `json:"worker_id"`
	Score    float64           `json:"score"`
}

// ReportStat feeds one worker's final cycle score back to the
// controller's moving-average table.
func (c *AdmissionClient) ReportStat(ctx context.Context, id protocol.WorkerID, score float64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := statRequest{WorkerID: id, Score: score}
	if err := c.postJSON(ctx, c.baseURL+"/api/v1/stats", req, nil); err != nil {
		return fmt.Errorf("stat report failed: %w", err)
	}
	return nil
}

type weightSnapshotResponse struct {
	WorkerIDs []protocol.WorkerID `json:"worker_ids"`
	Weights   []float64           `json:"weights"`
}

// WeightSnapshot returns the controller's current normalized score
// table, used as the basis for weight submission.
func (c *AdmissionClient) WeightSnapshot(ctx context.Context) ([]protocol.WorkerID, []float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	var resp weightSnapshotResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/weights", &resp); err != nil {
		return nil, nil, fmt.Errorf("weight snapshot failed: %w", err)
	}
	if len(resp.WorkerIDs) != len(resp.Weights) {
		return nil, nil, fmt.Errorf("weight snapshot mismatch: %d ids, %d weights", len(resp.WorkerIDs), len(resp.Weights))
	}
	return resp.WorkerIDs, resp.Weights, nil
}
