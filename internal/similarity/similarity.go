// Package similarity scores embedding vectors and ranks the scores.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

// Similarity is the minimum closeness two texts must have to be treated as matching
type Similarity string

const (
	VeryHigh Similarity = "very_high"
	High     Similarity = "high"
	Medium   Similarity = "medium"
	Low      Similarity = "low"
)

var thresholds = map[Similarity]float64{
	VeryHigh: 0.9,
	High:     0.8,
	Medium:   0.7,
	Low:      0.6,
}

func ParseSimilarity(value string) (Similarity, error) {
	rank := Similarity(value)
	if _, ok := thresholds[rank]; !ok {
		return "", fmt.Errorf("unknown similarity %q: must be one of %s, %s, %s, %s", value, VeryHigh, High, Medium, Low)
	}
	return rank, nil
}

// Threshold returns the lowest score accepted by the rank, or false when the rank is unknown
func (rank Similarity) Threshold() (float64, bool) {
	threshold, ok := thresholds[rank]
	return threshold, ok
}

// IsSimilarByScore reports whether a cosine score reaches the rank's threshold.
// Unknown ranks never match.
func IsSimilarByScore(rank Similarity, score float64) bool {
	threshold, ok := rank.Threshold()
	if !ok {
		return false
	}
	return score >= threshold
}

var ErrZeroVector = errors.New("cosine similarity is undefined for a zero vector")

// Cosine returns the cosine similarity of two vectors, in [-1, 1]
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrZeroVector
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
