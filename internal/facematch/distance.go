package facematch

import (
	"fmt"
	"math"
	"strings"
)

// Metric selects the distance function used to compare two features.
type Metric int

const (
	MetricChiSquare Metric = iota
	MetricEuclidean
	MetricCosine
)

// histEpsilon mirrors the bin cutoff used by OpenCV's HISTCMP_CHISQR.
const histEpsilon = 1e-12

func (m Metric) String() string {
	switch m {
	case MetricChiSquare:
		return "chisquare"
	case MetricEuclidean:
		return "euclidean"
	case MetricCosine:
		return "cosine"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// ParseMetric converts a config value to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chisquare", "chi-square", "chisqr":
		return MetricChiSquare, nil
	case "euclidean", "l2":
		return MetricEuclidean, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unknown distance metric %q", s)
	}
}

// Distance computes the distance between query and candidate using the metric.
// Callers must ensure both vectors have the same length.
func (m Metric) Distance(query, candidate []float32) float64 {
	switch m {
	case MetricChiSquare:
		return ChiSquareDistance(query, candidate)
	case MetricCosine:
		return CosineDistance(query, candidate)
	default:
		return EuclideanDistance(query, candidate)
	}
}

// ChiSquareDistance computes sum((q-c)^2 / q) over the bins where q is non-zero.
// The query histogram is the reference, as in OpenCV's compareHist.
func ChiSquareDistance(query, candidate []float32) float64 {
	var sum float64
	for i := range query {
		q := float64(query[i])
		if math.Abs(q) <= histEpsilon {
			continue
		}
		d := q - float64(candidate[i])
		sum += d * d / q
	}
	return sum
}

// EuclideanDistance computes the L2 distance between two vectors.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance computes 1 - cosine similarity.
// Returns 2 (maximum distance) for zero vectors.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to absorb floating point error.
	similarity = max(-1, min(1, similarity))
	return 1 - similarity
}

// Finite reports whether every component of feature is a finite number.
func Finite(feature []float32) bool {
	for _, v := range feature {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
