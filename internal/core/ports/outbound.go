package ports

import (
	"context"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// TextIndex runs semantic search over chunked text. An index with no corpus
// loaded returns an empty slice, not an error. Filters are exact-match
// constraints on chunk metadata applied after ranking, so fewer than k
// results is a valid outcome.
type TextIndex interface {
	Search(ctx context.Context, query string, k int, filters map[string]string) ([]domain.EvidenceHit, error)
}

// Embedder turns text into vectors for indexing and querying.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GraphStore answers structured queries against the knowledge graph. The
// convenience lookups accept an empty identifier where the underlying query
// has an unscoped form (listing all rows); Query is the raw escape hatch for
// read-only patterns.
type GraphStore interface {
	Query(ctx context.Context, pattern string) ([]domain.GraphFact, error)
	CoursesFor(ctx context.Context, studentIRI string) ([]domain.GraphFact, error)
	TasksFor(ctx context.Context, studentIRI string) ([]domain.GraphFact, error)
	ResourcesFor(ctx context.Context, courseIRI string) ([]domain.GraphFact, error)
	FeedbackFor(ctx context.Context, studentIRI string) ([]domain.GraphFact, error)
	CompetenciesFor(ctx context.Context, courseIRI string) ([]domain.GraphFact, error)
	CheckStatement(ctx context.Context, entityIRI, propertyIRI, value string) (bool, error)
}

// EntityResolver maps free-text mentions to canonical graph identifiers.
// A miss returns ok=false and is never an error.
type EntityResolver interface {
	Resolve(queryText string, entityType domain.EntityType) (iri string, ok bool)
}

// Generator produces free text from a system prompt, a conversation window
// and the current input.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []domain.ConversationTurn, input string) (string, error)
}

// Reasoner exposes description-logic inference over the loaded ontology.
// The port is optional; callers tolerate a nil implementation.
type Reasoner interface {
	CheckConsistency(ctx context.Context) (domain.ConsistencyReport, error)
	Realize(ctx context.Context) (map[string][]string, error)
}

// ConversationStore persists per-session dialogue turns. Append is the only
// writer for a session; Recent returns the last limit turns in chronological
// order.
type ConversationStore interface {
	Append(ctx context.Context, sessionID string, turns ...domain.ConversationTurn) error
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error)
}
