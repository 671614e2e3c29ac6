package memory

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fixedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vector, nil
}

func newThreeChunkIndex() *Index {
	index := New(&fixedEmbedder{vector: []float32{0}})
	index.ReplaceSnapshot(&Snapshot{Chunks: []Chunk{
		{Text: "perto", Metadata: map[string]string{"source": "a.pdf"}, Vector: []float32{0.1}},
		{Text: "médio", Metadata: map[string]string{"source": "b.pdf"}, Vector: []float32{0.5}},
		{Text: "longe", Metadata: map[string]string{"source": "c.pdf"}, Vector: []float32{0.9}},
	}})
	return index
}

func TestSearchScoresFollowDistance(t *testing.T) {
	index := newThreeChunkIndex()

	hits, err := index.Search(context.Background(), "pergunta", 2, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkText != "perto" || hits[1].ChunkText != "médio" {
		t.Fatalf("unexpected ranking: %q then %q", hits[0].ChunkText, hits[1].ChunkText)
	}
	if math.Abs(hits[0].SimilarityScore-1.0/1.1) > 1e-9 {
		t.Fatalf("expected score 1/(1+0.1), got %f", hits[0].SimilarityScore)
	}
	if math.Abs(hits[1].SimilarityScore-1.0/1.5) > 1e-9 {
		t.Fatalf("expected score 1/(1+0.5), got %f", hits[1].SimilarityScore)
	}
	for _, hit := range hits {
		if hit.SimilarityScore <= 0 || hit.SimilarityScore > 1 {
			t.Fatalf("score out of (0,1]: %f", hit.SimilarityScore)
		}
	}
}

func TestSearchEmptyIndexReturnsEmptySlice(t *testing.T) {
	index := New(&fixedEmbedder{vector: []float32{0}})

	hits, err := index.Search(context.Background(), "pergunta", 5, nil)
	if err != nil {
		t.Fatalf("empty index must not error, got %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", hits)
	}
}

func TestSearchFiltersApplyAfterRanking(t *testing.T) {
	index := newThreeChunkIndex()

	// k=2 keeps the two closest chunks; the filter then removes one of
	// them, so a single result is the correct outcome.
	hits, err := index.Search(context.Background(), "pergunta", 2, map[string]string{"source": "b.pdf"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkText != "médio" {
		t.Fatalf("expected only the filtered in-window chunk, got %+v", hits)
	}
}

func TestSearchDimensionMismatchFails(t *testing.T) {
	index := New(&fixedEmbedder{vector: []float32{0, 0}})
	index.ReplaceSnapshot(&Snapshot{Chunks: []Chunk{
		{Text: "x", Vector: []float32{0.1}},
	}})

	if _, err := index.Search(context.Background(), "pergunta", 5, nil); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestReplaceSnapshotIsVisibleToNewSearches(t *testing.T) {
	index := newThreeChunkIndex()

	index.ReplaceSnapshot(&Snapshot{Chunks: []Chunk{
		{Text: "novo corpus", Vector: []float32{0.2}},
	}})

	hits, err := index.Search(context.Background(), "pergunta", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkText != "novo corpus" {
		t.Fatalf("swap not visible: %+v", hits)
	}
}

func TestLoadSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	payload := `{"chunks":[{"text":"trecho","metadata":{"source":"a.pdf"},"vector":[0.1,0.2]}]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	snapshot, err := LoadSnapshotFile(path)
	if err != nil {
		t.Fatalf("LoadSnapshotFile() error = %v", err)
	}
	if len(snapshot.Chunks) != 1 || snapshot.Chunks[0].Text != "trecho" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestLoadSnapshotFileRejectsMissingVectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"chunks":[{"text":"sem vetor"}]}`), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	if _, err := LoadSnapshotFile(path); err == nil {
		t.Fatalf("expected error for chunk without vector")
	}
}
