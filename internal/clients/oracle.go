package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/condenses/validator/internal/signer"
)

// OracleClient calls the scoring oracle, the model service that judges
// how well each compressed candidate preserves the reference text.
// This is the slowest call in a cycle; the forward runner serializes
// access to it through its scoring gate.
type OracleClient struct {
	*base
	baseURL string
}

func NewOracleClient(baseURL string, timeout time.Duration, s *signer.Signer) *OracleClient {
	return &OracleClient{base: newBase(timeout, s), baseURL: baseURL}
}

type scoreRequest struct {
	Reference  string   `json:"reference"`
	Candidates []string `json:"candidates"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// ScoreBatch scores all candidates against the reference in one call.
func (c *OracleClient) ScoreBatch(ctx context.Context, reference string, candidates []string) ([]float64, error) {
	req := scoreRequest{Reference: reference, Candidates: candidates}
	var resp scoreResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/v1/score", req, &resp); err != nil {
		return nil, fmt.Errorf("score request failed: %w", err)
	}
	if len(resp.Scores) != len(candidates) {
		return nil, fmt.Errorf("oracle returned %d scores for %d candidates", len(resp.Scores), len(candidates))
	}
	return resp.Scores, nil
}
