// Package matcher selects the best-matching enrollment for a probe vector
// using cosine similarity. It applies no threshold; that is the decision
// engine's job.
package matcher

import (
	"math"

	"github.com/faceguard/faceguard/internal/models"
)

// epsilon keeps the similarity denominator away from zero so degenerate
// vectors yield 0.0 instead of NaN.
const epsilon = 1e-9

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// Vectors of different lengths, empty vectors, or zero-norm vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + epsilon)
}

// BestMatch scans the enrollments and returns the one most similar to the
// probe, with its score. Enrollments from a different model or with a
// different dimensionality are skipped, never an error. Ties keep the first
// enrollment encountered, i.e. cache insertion order. Returns nil if no
// comparable enrollment scores above zero.
func BestMatch(probe []float32, modelName string, enrollments []models.Enrollment) (*models.Enrollment, float64) {
	var best *models.Enrollment
	bestScore := 0.0
	for i := range enrollments {
		e := &enrollments[i]
		if modelName != "" && e.ModelName != "" && e.ModelName != modelName {
			continue
		}
		if len(e.Vector) != len(probe) {
			continue
		}
		score := Cosine(probe, e.Vector)
		if score > bestScore {
			bestScore = score
			best = e
		}
	}
	return best, bestScore
}
