package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/internal/signer"
)

// WeightsClient submits the aggregated weight vector to the network
// gateway.
type WeightsClient struct {
	*base
	baseURL string
}

func NewWeightsClient(baseURL string, timeout time.Duration, s *signer.Signer) *WeightsClient {
	return &WeightsClient{base: newBase(timeout, s), baseURL: baseURL}
}

type submitWeightsRequest struct {
	WorkerIDs []protocol.WorkerID `json:"worker_ids"`
	Weights   []float64           `json:"weights"`
	NetworkID int                 `json:"network_id"`
	Version   int                 `json:"version"`
}

type submitWeightsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitWeights pushes one weight vector. A false return with a nil
// error means the gateway understood the submission and rejected it,
// for example when the submission window has not elapsed yet.
func (c *WeightsClient) SubmitWeights(ctx context.Context, ids []protocol.WorkerID, weights []float64, networkID, version int) (bool, string, error) {
	req := submitWeightsRequest{
		WorkerIDs: ids,
		Weights:   weights,
		NetworkID: networkID,
		Version:   version,
	}
	var resp submitWeightsResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/v1/weights", req, &resp); err != nil {
		return false, "", fmt.Errorf("weight submission failed: %w", err)
	}
	return resp.Success, resp.Message, nil
}
