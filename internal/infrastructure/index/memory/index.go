package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
)

// Chunk is one indexed text fragment with its embedding and metadata.
type Chunk struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Vector   []float32         `json:"vector"`
}

// Snapshot is an immutable view of the corpus. Readers never see a snapshot
// change underneath them; updates swap in a fresh snapshot atomically.
type Snapshot struct {
	Chunks []Chunk `json:"chunks"`
}

// Index is a brute-force Euclidean text index held entirely in memory.
// Searches rank the whole corpus by distance, truncate to k, then apply
// metadata filters, so fewer than k filtered results is expected behavior.
type Index struct {
	embedder ports.Embedder
	snapshot atomic.Pointer[Snapshot]
}

func New(embedder ports.Embedder) *Index {
	return &Index{embedder: embedder}
}

// ReplaceSnapshot publishes a new corpus. The caller must not mutate the
// snapshot after handing it over.
func (ix *Index) ReplaceSnapshot(snapshot *Snapshot) {
	ix.snapshot.Store(snapshot)
}

func (ix *Index) Search(ctx context.Context, query string, k int, filters map[string]string) ([]domain.EvidenceHit, error) {
	snapshot := ix.snapshot.Load()
	if snapshot == nil || len(snapshot.Chunks) == 0 {
		return []domain.EvidenceHit{}, nil
	}

	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "embed query", err)
	}

	type scored struct {
		chunk    Chunk
		distance float64
	}

	ranked := make([]scored, 0, len(snapshot.Chunks))
	for _, chunk := range snapshot.Chunks {
		distance, err := euclideanDistance(vector, chunk.Vector)
		if err != nil {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "search", err)
		}
		ranked = append(ranked, scored{chunk: chunk, distance: distance})
	}

	// Stable sort keeps insertion order for equal distances, which makes
	// result order reproducible across runs.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]domain.EvidenceHit, 0, len(ranked))
	for _, candidate := range ranked {
		if !matchesFilters(candidate.chunk.Metadata, filters) {
			continue
		}
		out = append(out, domain.EvidenceHit{
			ChunkText:       candidate.chunk.Text,
			Source:          candidate.chunk.Metadata,
			SimilarityScore: 1.0 / (1.0 + candidate.distance),
			RawDistance:     candidate.distance,
		})
	}
	return out, nil
}

func matchesFilters(metadata, filters map[string]string) bool {
	for key, want := range filters {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

func euclideanDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
