package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/infrastructure/resilience"
)

// Store answers read-only Cypher queries against the knowledge graph. Every
// caller-supplied value travels as a bound parameter; identifiers are
// additionally shape-checked before use.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	executor *resilience.Executor
}

func New(uri, user, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Store{driver: driver, database: database}, nil
}

// WithExecutor routes graph queries through the shared retry/breaker
// executor.
func (s *Store) WithExecutor(executor *resilience.Executor) *Store {
	s.executor = executor
	return s
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) run(ctx context.Context, operation, cypher string, params map[string]any) ([]domain.GraphFact, error) {
	var facts []domain.GraphFact

	call := func(ctx context.Context) error {
		session := s.driver.NewSession(ctx, neo4j.SessionConfig{
			AccessMode:   neo4j.AccessModeRead,
			DatabaseName: s.database,
		})
		defer session.Close(ctx)

		records, err := neo4j.ExecuteRead(ctx, session,
			func(tx neo4j.ManagedTransaction) ([]*neo4j.Record, error) {
				result, err := tx.Run(ctx, cypher, params)
				if err != nil {
					return nil, err
				}
				return result.Collect(ctx)
			})
		if err != nil {
			return err
		}
		facts = factsFromRecords(records)
		return nil
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, operation, call, classifyNeo4jError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, &domain.GraphQueryError{Query: cypher, Err: err}
	}
	return facts, nil
}

func factsFromRecords(records []*neo4j.Record) []domain.GraphFact {
	facts := make([]domain.GraphFact, 0, len(records))
	for _, record := range records {
		fact := domain.GraphFact{}
		for i, key := range record.Keys {
			value, bound := graphValue(record.Values[i])
			if !bound {
				// Unbound optional variables stay absent from the fact.
				continue
			}
			fact[key] = value
		}
		facts = append(facts, fact)
	}
	return facts
}

// graphValue converts one driver value into the domain representation.
// Strings with a URI scheme and nodes carrying an iri property become
// identifiers; everything else is a literal.
func graphValue(raw any) (domain.GraphValue, bool) {
	switch v := raw.(type) {
	case nil:
		return domain.GraphValue{}, false
	case string:
		if isIRIString(v) {
			return domain.IRIValue(v), true
		}
		return domain.LiteralValue(v), true
	case neo4j.Node:
		if iri, ok := v.Props["iri"].(string); ok && iri != "" {
			return domain.IRIValue(iri), true
		}
		return domain.GraphValue{}, false
	default:
		return domain.LiteralValue(v), true
	}
}

func isIRIString(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "urn:")
}
