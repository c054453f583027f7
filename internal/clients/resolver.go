package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/internal/signer"
)

// ResolverClient maps worker ids to reachable endpoint addresses.
type ResolverClient struct {
	*base
	baseURL string
}

func NewResolverClient(baseURL string, timeout time.Duration, s *signer.Signer) *ResolverClient {
	return &ResolverClient{base: newBase(timeout, s), baseURL: baseURL}
}

type resolveRequest struct {
	WorkerIDs []protocol.WorkerID `json:"worker_ids"`
}

type resolveResponse struct {
	Endpoints []protocol.Endpoint `json:"endpoints"`
}

// ResolveEndpoints resolves addresses for the granted workers. Workers
// the resolver does not know are simply absent from the result.
func (c *ResolverClient) ResolveEndpoints(ctx context.Context, ids []protocol.WorkerID) ([]protocol.Endpoint, error) {
	var resp resolveResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/v1/resolve", resolveRequest{WorkerIDs: ids}, &resp); err != nil {
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	return resp.Endpoints, nil
}
