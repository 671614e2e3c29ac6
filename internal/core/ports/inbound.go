package ports

import (
	"context"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// EvidenceRetriever is the inbound contract for hybrid retrieval.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, query string, k int, useGraph bool, filters map[string]string) (*domain.EvidenceBundle, error)
	VerifyStatement(ctx context.Context, stmt domain.Statement) (*domain.StatementCheck, error)
}

// GraphQuerier is the raw structured-query surface with citation extraction.
type GraphQuerier interface {
	GraphQuery(ctx context.Context, pattern string) ([]domain.GraphFact, domain.Citations, error)
}

// QueryDispatcher routes a query to a handler and always yields a
// fully-formed envelope, even when every handler fails.
type QueryDispatcher interface {
	Dispatch(ctx context.Context, query domain.Query) *domain.ResponseEnvelope
}
