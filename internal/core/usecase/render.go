package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

const (
	contextTextHits   = 3
	contextGraphFacts = 5
)

// renderCombinedContext flattens evidence into the plain-text block handed
// to the generation service. Layout is fixed (text hits first, then graph
// facts, fact fields sorted by name) so the same bundle always renders to
// the same bytes.
func renderCombinedContext(hits []domain.EvidenceHit, facts []domain.GraphFact) string {
	var b strings.Builder

	if len(hits) > 0 {
		b.WriteString("=== Document evidence ===\n")
		limit := min(len(hits), contextTextHits)
		for i, hit := range hits[:limit] {
			fmt.Fprintf(&b, "Document %d (score %.3f):\n%s\n", i+1, hit.SimilarityScore, hit.ChunkText)
		}
	}

	if len(facts) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("=== Knowledge graph evidence ===\n")
		limit := min(len(facts), contextGraphFacts)
		for i, fact := range facts[:limit] {
			fmt.Fprintf(&b, "Entity %d:\n", i+1)
			for _, field := range sortedFields(fact) {
				fmt.Fprintf(&b, "  %s: %s\n", field, fact[field].String())
			}
		}
	}

	return b.String()
}

// documentCitations extracts one citation per distinct (source, snippet)
// pair, preserving hit order.
func documentCitations(hits []domain.EvidenceHit) []domain.DocumentCitation {
	out := make([]domain.DocumentCitation, 0, len(hits))
	seen := make(map[[2]string]struct{}, len(hits))
	for _, hit := range hits {
		source := hit.Source["source"]
		if source == "" {
			source = "unknown"
		}
		snippet := domain.Snippet(hit.ChunkText)
		key := [2]string{source, snippet}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.DocumentCitation{
			Source:  source,
			Snippet: snippet,
			Score:   hit.SimilarityScore,
		})
	}
	return out
}

// entityCitations extracts one citation per distinct (iri, field) pair from
// the IRI-valued bindings, walking fact fields in sorted order.
func entityCitations(facts []domain.GraphFact) []domain.EntityCitation {
	out := make([]domain.EntityCitation, 0)
	seen := make(map[domain.EntityCitation]struct{})
	for _, fact := range facts {
		for _, field := range sortedFields(fact) {
			value := fact[field]
			if !value.IsIRI() {
				continue
			}
			citation := domain.EntityCitation{IRI: value.IRI, Field: field}
			if _, dup := seen[citation]; dup {
				continue
			}
			seen[citation] = struct{}{}
			out = append(out, citation)
		}
	}
	return out
}

func sortedFields(fact domain.GraphFact) []string {
	fields := make([]string, 0, len(fact))
	for field := range fact {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
