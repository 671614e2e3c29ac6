package domain

// EvidenceHit is one ranked text-index result. SimilarityScore is derived
// from the raw distance as 1/(1+distance), so it stays in (0,1] and ranking
// by score descending equals ranking by distance ascending.
type EvidenceHit struct {
	ChunkText       string            `json:"chunk_text"`
	Source          map[string]string `json:"source"`
	SimilarityScore float64           `json:"similarity_score"`
	RawDistance     float64           `json:"raw_distance"`
}

type DocumentCitation struct {
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

type EntityCitation struct {
	IRI   string `json:"iri"`
	Field string `json:"field"`
}

// Citations always carries non-nil slices so JSON consumers see [] rather
// than null.
type Citations struct {
	Documents []DocumentCitation `json:"documents"`
	Entities  []EntityCitation   `json:"entities"`
}

func NewCitations() Citations {
	return Citations{
		Documents: []DocumentCitation{},
		Entities:  []EntityCitation{},
	}
}

// EvidenceBundle is the merged result of one hybrid retrieval pass.
// Degraded names evidence sources that failed and were left out; a bundle
// with degraded sources is still a successful retrieval.
type EvidenceBundle struct {
	TextHits        []EvidenceHit `json:"text_hits"`
	GraphFacts      []GraphFact   `json:"graph_facts"`
	Citations       Citations     `json:"citations"`
	CombinedContext string        `json:"combined_context"`
	Degraded        []string      `json:"degraded,omitempty"`
}

const snippetMaxRunes = 200

// Snippet truncates chunk text to the citation snippet length on a rune
// boundary.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetMaxRunes {
		return text
	}
	return string(runes[:snippetMaxRunes])
}
