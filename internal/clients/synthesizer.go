package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/internal/signer"
)

// SynthesizerClient fetches synthetic compression tasks.
type SynthesizerClient struct {
	*base
	baseURL string
}

func NewSynthesizerClient(baseURL string, timeout time.Duration, s *signer.Signer) *SynthesizerClient {
	return &SynthesizerClient{base: newBase(timeout, s), baseURL: baseURL}
}

type taskResponse struct {
	Text string `json:"text"`
}

// NextTask fetches one fresh task. An empty text is an error: a cycle
// cannot validate compression of nothing.
func (c *SynthesizerClient) NextTask(ctx context.Context) (protocol.Task, error) {
	var resp taskResponse
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/task", &resp); err != nil {
		return protocol.Task{}, fmt.Errorf("task request failed: %w", err)
	}
	if resp.Text == "" {
		return protocol.Task{}, fmt.Errorf("synthesizer returned empty task")
	}
	return protocol.Task{Text: resp.Text}, nil
}
