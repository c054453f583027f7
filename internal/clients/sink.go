package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/condenses/validator/internal/forward"
	"github.com/condenses/validator/internal/signer"
)

// SinkClient posts the per-cycle scoring record to the reporting sink.
// The sink authenticates submitters by the signed headers, so this
// client requires a signer.
type SinkClient struct {
	*base
	baseURL string
}

func NewSinkClient(baseURL string, timeout time.Duration, s *signer.Signer) *SinkClient {
	return &SinkClient{base: newBase(timeout, s), baseURL: baseURL}
}

// Report submits one cycle's batch record.
func (c *SinkClient) Report(ctx context.Context, report forward.BatchReport) error {
	if err := c.postJSON(ctx, c.baseURL+"/api/v1/report", report, nil); err != nil {
		return fmt.Errorf("batch report failed: %w", err)
	}
	return nil
}
