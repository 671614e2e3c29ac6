package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
)

// Index is a remote text index over a qdrant collection configured with the
// Euclid metric. The query is embedded through the Embedder port; hit scores
// are derived from the returned distance as 1/(1+distance).
type Index struct {
	baseURL    string
	collection string
	httpClient *http.Client
	embedder   ports.Embedder
}

func New(baseURL, collection string, embedder ports.Embedder) *Index {
	return &Index{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		embedder:   embedder,
	}
}

func (ix *Index) Search(ctx context.Context, query string, k int, filters map[string]string) ([]domain.EvidenceHit, error) {
	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "embed query", err)
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if len(filters) > 0 {
		must := make([]map[string]any, 0, len(filters))
		for key, value := range filters {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		reqBody["filter"] = map[string]any{"must": must}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", ix.baseURL, ix.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ix.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "qdrant search", err)
	}
	defer resp.Body.Close()

	// A missing collection is the index-not-built state, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return []domain.EvidenceHit{}, nil
	}
	if resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(responseBody)); msg != "" {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "qdrant search",
				fmt.Errorf("status %s: %s", resp.Status, msg))
		}
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "qdrant search",
			fmt.Errorf("status %s", resp.Status))
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.EvidenceHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		distance := r.Score
		if distance < 0 {
			distance = -distance
		}
		out = append(out, domain.EvidenceHit{
			ChunkText:       getStringPayload(r.Payload, "text"),
			Source:          payloadMetadata(r.Payload),
			SimilarityScore: 1.0 / (1.0 + distance),
			RawDistance:     distance,
		})
	}
	return out, nil
}

func payloadMetadata(payload map[string]any) map[string]string {
	metadata := make(map[string]string, len(payload))
	for key, value := range payload {
		if key == "text" {
			continue
		}
		metadata[key] = fmt.Sprintf("%v", value)
	}
	return metadata
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
