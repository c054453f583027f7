package protocol

// WorkerID identifies a remote compression worker on the network.
// IDs are opaque integers assigned by the admission service and are
// unique within a single forward cycle.
type WorkerID int

// Task is a single synthetic text payload to be compressed. A task is
// immutable once created and owned by exactly one forward cycle.
type Task struct {
	Text string `json:"text"`
}

// WorkerResponse is the result returned by one worker for a dispatched
// task. A nil *WorkerResponse means the worker never answered within
// the dispatch timeout.
type WorkerResponse struct {
	WorkerID           WorkerID `json:"worker_id"`
	Succeeded          bool     `json:"succeeded"`
	CompressedText     string   `json:"compressed_text"`
	ProcessTimeSeconds float64  `json:"process_time_seconds"`
}

// Endpoint is a resolved transport address for a worker.
type Endpoint struct {
	WorkerID WorkerID `json:"worker_id"`
	Address  string   `json:"address"`
}
