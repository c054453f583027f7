package forward

import "github.com/condenses/validator/internal/protocol"

// BatchReport is the structured record of one cycle's scoring batch,
// pushed best-effort to the reporting sink. CompressRates, Differentiate,
// RawScores and FinalScores are parallel to ScoredUIDs.
type BatchReport struct {
	CycleID       string              `json:"cycle_id"`
	InvalidUIDs   []protocol.WorkerID `json:"invalid_uids"`
	ValidUIDs     []protocol.WorkerID `json:"valid_uids"`
	ScoredUIDs    []protocol.WorkerID `json:"scored_uids"`
	CompressRates []float64           `json:"compress_rates"`
	Differentiate []float64           `json:"differentiate_scores"`
	RawScores     []float64           `json:"raw_scores"`
	FinalScores   []float64           `json:"final_scores"`
}
