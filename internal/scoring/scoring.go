// Package scoring implements the pure scoring primitives for compressed
// worker responses: token-based compress rates, pairwise text
// differentiation, and the final score ensemble. Every function here is
// deterministic and side-effect free.
package scoring

// CompressRate returns 1 - tokens(candidate)/tokens(reference).
//
// The rate is deliberately not clamped: a candidate longer than the
// reference yields a negative rate, which penalizes expansion when the
// rate is fed into the ensemble. An empty reference yields 0 since no
// meaningful ratio exists.
func CompressRate(reference, candidate string) float64 {
	refTokens := TokenCount(reference)
	if refTokens == 0 {
		return 0
	}
	return 1 - float64(TokenCount(candidate))/float64(refTokens)
}

// CompressRates computes CompressRate for each candidate against the
// same reference, tokenizing the reference once.
func CompressRates(reference string, candidates []string) []float64 {
	rates := make([]float64, len(candidates))
	refTokens := TokenCount(reference)
	for i, candidate := range candidates {
		if refTokens == 0 {
			rates[i] = 0
			continue
		}
		rates[i] = 1 - float64(TokenCount(candidate))/float64(refTokens)
	}
	return rates
}

// Ensemble combines the oracle's raw score with compress rate and
// differentiation into the final per-worker score:
//
//	raw * (0.7 + 0.2*compressRate + 0.1*differentiateScore)
//
// The result is not clamped to [0,1]. It can go negative for strongly
// negative compress rates and can exceed the raw score when compress
// rate or differentiation exceed 1. The multiplicative form scales the
// compression and uniqueness rewards by the oracle's quality judgment.
func Ensemble(rawScore, compressRate, differentiateScore float64) float64 {
	return rawScore * (0.7 + 0.2*compressRate + 0.1*differentiateScore)
}

// EnsembleAll applies Ensemble element-wise. All slices must have the
// same length.
func EnsembleAll(rawScores, compressRates, differentiateScores []float64) []float64 {
	final := make([]float64, len(rawScores))
	for i := range rawScores {
		final[i] = Ensemble(rawScores[i], compressRates[i], differentiateScores[i])
	}
	return final
}
