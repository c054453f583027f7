package scoring

// wordEditDistance computes the classic dynamic-programming edit
// distance over word tokens with unit cost for insert, delete and
// substitute.
func wordEditDistance(a, b []string) int {
	m, n := len(a), len(b)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			del := prev[j]
			ins := curr[j-1]
			sub := prev[j-1]
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			curr[j] = 1 + best
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// WordEditSimilarity scores how similar two texts are at the word level,
// returning a value in [0,1] where 1 means identical word sequences.
// Two empty texts are considered identical.
func WordEditSimilarity(text1, text2 string) float64 {
	words1 := Words(text1)
	words2 := Words(text2)

	maxLen := len(words1)
	if len(words2) > maxLen {
		maxLen = len(words2)
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := wordEditDistance(words1, words2)
	return 1 - float64(distance)/float64(maxLen)
}

// DifferentiateScores scores each candidate by how different it is from
// the other candidates in the same batch: the mean of (1 - similarity)
// against every other text. Higher means more unique. An empty batch
// yields an empty result; a single candidate is maximally unique and
// scores 1.0. Identical texts contribute 0 to each other's mean.
func DifferentiateScores(texts []string) []float64 {
	if len(texts) == 0 {
		return []float64{}
	}
	if len(texts) == 1 {
		return []float64{1.0}
	}

	// Tokenize once; the pairwise loop below is O(n^2) DP runs already.
	tokenized := make([][]string, len(texts))
	for i, text := range texts {
		tokenized[i] = Words(text)
	}

	scores := make([]float64, len(texts))
	for i := range tokenized {
		total := 0.0
		for j := range tokenized {
			if i == j {
				continue
			}
			total += 1 - tokenSimilarity(tokenized[i], tokenized[j])
		}
		scores[i] = total / float64(len(texts)-1)
	}
	return scores
}

// tokenSimilarity is WordEditSimilarity over pre-tokenized inputs.
func tokenSimilarity(a, b []string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1 - float64(wordEditDistance(a, b))/float64(maxLen)
}
