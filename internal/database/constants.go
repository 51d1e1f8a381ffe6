package database

// HNSW index parameters for face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100

	// HNSWSearchMultiplier is the factor to request more candidates from HNSW
	// so the exact matching rule still sees the true nearest entry.
	HNSWSearchMultiplier = 3

	// HNSWMinCandidates is the smallest candidate set requested from the graph.
	HNSWMinCandidates = 10
)
