package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// ErrUnsupportedMetric is returned when the index is built for a metric HNSW cannot serve.
var ErrUnsupportedMetric = errors.New("metric not supported by HNSW index")

// GalleryIndex wraps an HNSW graph over gallery entry positions. It only narrows the
// candidate set; the caller applies the exact matching rule over the returned positions.
type GalleryIndex struct {
	graph  *hnsw.Graph[int]
	metric facematch.Metric
	dim    int
	count  int
	mu     sync.RWMutex
}

// NewGalleryIndex creates an empty index for the given metric.
func NewGalleryIndex(metric facematch.Metric) (*GalleryIndex, error) {
	if _, err := distanceFunc(metric); err != nil {
		return nil, err
	}
	return &GalleryIndex{metric: metric}, nil
}

func distanceFunc(metric facematch.Metric) (hnsw.DistanceFunc, error) {
	switch metric {
	case facematch.MetricCosine:
		return hnsw.CosineDistance, nil
	case facematch.MetricEuclidean:
		return hnsw.EuclideanDistance, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
	}
}

// Build replaces the index with the given entries. Only entries whose feature has
// length dim are indexed; dim 0 takes the length of the first non-empty feature.
func (g *GalleryIndex) Build(entries []facematch.Entry, dim int) error {
	dist, err := distanceFunc(g.metric)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if dim == 0 {
		for _, e := range entries {
			if len(e.Feature) > 0 {
				dim = len(e.Feature)
				break
			}
		}
	}

	g.graph = nil
	g.dim = dim
	g.count = 0
	if dim == 0 {
		return nil
	}

	graph := hnsw.NewGraph[int]()
	graph.M = HNSWMaxNeighbors
	graph.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	graph.EfSearch = HNSWEfSearch
	graph.Distance = dist

	for i, e := range entries {
		if len(e.Feature) != dim {
			continue
		}
		graph.Add(hnsw.MakeNode(i, e.Feature))
		g.count++
	}

	if g.count > 0 {
		g.graph = graph
	}
	return nil
}

// Candidates returns gallery positions likely to contain the nearest entries to query.
// It asks the graph for more neighbours than k so the exact pass is not starved.
func (g *GalleryIndex) Candidates(query []float32, k int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.graph == nil || len(query) != g.dim {
		return nil
	}

	want := max(k*HNSWSearchMultiplier, HNSWMinCandidates)
	want = min(want, g.count)

	neighbors := g.graph.Search(query, want)
	positions := make([]int, len(neighbors))
	for i, n := range neighbors {
		positions[i] = n.Key
	}
	return positions
}

// Count returns the number of indexed entries.
func (g *GalleryIndex) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.count
}

// Dim returns the indexed feature length.
func (g *GalleryIndex) Dim() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dim
}

// IsEmpty returns true if the index has no graph data.
func (g *GalleryIndex) IsEmpty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.graph == nil
}

// Supports reports whether the index can serve a strategy's metric.
func Supports(metric facematch.Metric) bool {
	_, err := distanceFunc(metric)
	return err == nil
}
