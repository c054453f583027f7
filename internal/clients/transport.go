package clients

import (
	"context"
	"sync"
	"time"

	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/pkg/logger"
)

// maxConcurrentDispatch bounds the fan-out of a single cycle so a large
// batch cannot open an unbounded number of connections at once.
const maxConcurrentDispatch = 16

// WorkerTransport delivers one task to many worker endpoints in
// parallel over HTTP. Endpoint failures and timeouts are recorded as
// nil responses, never surfaced as a transport error; the validator
// downstream turns them into invalid results.
type WorkerTransport struct {
	*base
	log *logger.Logger
}

func NewWorkerTransport(timeout time.Duration, log *logger.Logger) *WorkerTransport {
	return &WorkerTransport{base: newBase(timeout, nil), log: log}
}

type compressRequest struct {
	Text string `json:"text"`
}

type compressResponse struct {
	Succeeded      bool   `json:"succeeded"`
	CompressedText string `json:"compressed_text"`
}

// Dispatch sends the task to every endpoint and collects responses
// positionally. The returned slice is always parallel to endpoints.
func (t *WorkerTransport) Dispatch(ctx context.Context, endpoints []protocol.Endpoint, task protocol.Task) ([]*protocol.WorkerResponse, error) {
	responses := make([]*protocol.WorkerResponse, len(endpoints))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentDispatch)

	for i, ep := range endpoints {
		wg.Add(1)
		go func(index int, ep protocol.Endpoint) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			responses[index] = t.query(ctx, ep, task)
		}(i, ep)
	}

	wg.Wait()
	return responses, nil
}

func (t *WorkerTransport) query(ctx context.Context, ep protocol.Endpoint, task protocol.Task) *protocol.WorkerResponse {
	started := time.Now()

	var resp compressResponse
	if err := t.postJSON(ctx, ep.Address+"/api/v1/compress", compressRequest{Text: task.Text}, &resp); err != nil {
		t.log.Debug("worker request failed", "worker_id", ep.WorkerID, "address", ep.Address, "error", err)
		return nil
	}

	return &protocol.WorkerResponse{
		WorkerID:           ep.WorkerID,
		Succeeded:          resp.Succeeded,
		CompressedText:     resp.CompressedText,
		ProcessTimeSeconds: time.Since(started).Seconds(),
	}
}
