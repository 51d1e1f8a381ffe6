package facematch

import (
	"errors"
	"fmt"
)

// ExtractorKind tells the pipeline where a strategy's feature vectors come from.
type ExtractorKind string

const (
	// ExtractorLBP computes a local binary pattern histogram from the face crop.
	ExtractorLBP ExtractorKind = "lbp"
	// ExtractorService uses the embedding returned by the detection service.
	ExtractorService ExtractorKind = "service"
)

// Strategy is a feature representation together with its distance metric and threshold.
// Histogram and embedding features use very different distance scales, so the
// tolerance is only meaningful for the strategy it belongs to.
type Strategy struct {
	Name      string
	Metric    Metric
	Tolerance float64
	Dim       int // expected feature length, 0 = any
	Extractor ExtractorKind
}

// Validate checks that the strategy is usable for matching.
func (s Strategy) Validate() error {
	if s.Name == "" {
		return errors.New("strategy name is required")
	}
	if s.Tolerance <= 0 {
		return fmt.Errorf("strategy %s: tolerance must be positive, got %v", s.Name, s.Tolerance)
	}
	if s.Dim < 0 {
		return fmt.Errorf("strategy %s: negative dimension %d", s.Name, s.Dim)
	}
	switch s.Extractor {
	case ExtractorLBP, ExtractorService:
	default:
		return fmt.Errorf("strategy %s: unknown extractor %q", s.Name, s.Extractor)
	}
	return nil
}

// Accepts reports whether a feature has the length this strategy expects.
func (s Strategy) Accepts(feature []float32) bool {
	if len(feature) == 0 {
		return false
	}
	return s.Dim == 0 || len(feature) == s.Dim
}
