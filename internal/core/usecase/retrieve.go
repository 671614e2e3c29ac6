package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
)

const (
	defaultTopK     = 5
	reasonerTimeout = 5 * time.Second
)

// RetrieveUseCase fuses semantic text search with topical graph lookups into
// a single evidence bundle. Evidence sources degrade independently: a failed
// source is logged, recorded in the bundle and skipped, never fatal.
type RetrieveUseCase struct {
	index    ports.TextIndex
	graph    ports.GraphStore
	resolver ports.EntityResolver
	reasoner ports.Reasoner
	logger   *slog.Logger
}

func NewRetrieveUseCase(
	index ports.TextIndex,
	graph ports.GraphStore,
	resolver ports.EntityResolver,
	reasoner ports.Reasoner,
	logger *slog.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		index:    index,
		graph:    graph,
		resolver: resolver,
		reasoner: reasoner,
		logger:   logger,
	}
}

func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	query string,
	k int,
	useGraph bool,
	filters map[string]string,
) (*domain.EvidenceBundle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("query text is required"))
	}
	if k <= 0 {
		k = defaultTopK
	}

	bundle := &domain.EvidenceBundle{
		TextHits:   []domain.EvidenceHit{},
		GraphFacts: []domain.GraphFact{},
		Citations:  domain.NewCitations(),
	}

	var (
		wg       sync.WaitGroup
		textHits []domain.EvidenceHit
		textErr  error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		textHits, textErr = uc.index.Search(ctx, query, k, filters)
	}()

	var (
		buckets     []evidenceBucket
		bucketFacts [][]domain.GraphFact
		bucketErrs  []error
	)
	if useGraph {
		buckets = matchBuckets(query)
		bucketFacts = make([][]domain.GraphFact, len(buckets))
		bucketErrs = make([]error, len(buckets))
		for i, bucket := range buckets {
			entityIRI, resolved := uc.resolver.Resolve(query, bucket.entityType)
			if !resolved && !bucket.optional {
				// Resolution miss skips the bucket rather than guessing an
				// entity or failing the whole retrieval.
				uc.logger.Debug("bucket_skipped_unresolved",
					"bucket", bucket.name,
					"entity_type", string(bucket.entityType),
				)
				continue
			}
			wg.Add(1)
			go func(i int, bucket evidenceBucket, iri string) {
				defer wg.Done()
				bucketFacts[i], bucketErrs[i] = bucket.run(ctx, uc.graph, iri)
			}(i, bucket, entityIRI)
		}
	}

	wg.Wait()

	if textErr != nil {
		uc.logger.Warn("text_index_degraded", "error", textErr)
		bundle.Degraded = append(bundle.Degraded, "text_index")
	} else {
		bundle.TextHits = append(bundle.TextHits, textHits...)
	}

	// Merge in bucket table order regardless of goroutine completion order.
	for i := range buckets {
		if bucketErrs[i] != nil {
			uc.logger.Warn("graph_bucket_degraded",
				"bucket", buckets[i].name,
				"error", bucketErrs[i],
			)
			bundle.Degraded = append(bundle.Degraded, "graph:"+buckets[i].name)
			continue
		}
		bundle.GraphFacts = append(bundle.GraphFacts, bucketFacts[i]...)
	}

	bundle.Citations.Documents = documentCitations(bundle.TextHits)
	bundle.Citations.Entities = entityCitations(bundle.GraphFacts)
	bundle.CombinedContext = renderCombinedContext(bundle.TextHits, bundle.GraphFacts)
	uc.appendReasonerSummary(ctx, bundle)

	return bundle, nil
}

// VerifyStatement checks a single claim against the graph. Incomplete
// statements are reported as inconsistent with a reason instead of erroring,
// so callers can surface the verdict directly.
func (uc *RetrieveUseCase) VerifyStatement(ctx context.Context, stmt domain.Statement) (*domain.StatementCheck, error) {
	if stmt.Entity == "" || stmt.Property == "" || stmt.Value == "" {
		return &domain.StatementCheck{
			Statement:  stmt,
			Consistent: false,
			Reason:     "entity, property and value are all required",
		}, nil
	}

	ok, err := uc.graph.CheckStatement(ctx, stmt.Entity, stmt.Property, stmt.Value)
	if err != nil {
		return nil, err
	}
	check := &domain.StatementCheck{Statement: stmt, Consistent: ok}
	if !ok {
		check.Reason = "statement is not entailed by the knowledge graph"
	}
	return check, nil
}

// GraphQuery is the raw pass-through for read-only patterns, returning rows
// plus the entity citations extracted from them.
func (uc *RetrieveUseCase) GraphQuery(ctx context.Context, pattern string) ([]domain.GraphFact, domain.Citations, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, domain.NewCitations(), domain.WrapError(domain.ErrInvalidInput, "graph query", fmt.Errorf("query pattern is required"))
	}

	facts, err := uc.graph.Query(ctx, pattern)
	if err != nil {
		return nil, domain.NewCitations(), err
	}

	citations := domain.NewCitations()
	citations.Entities = entityCitations(facts)
	return facts, citations, nil
}

// appendReasonerSummary opportunistically extends the combined context with
// inference results. Any reasoner failure leaves the bundle untouched.
func (uc *RetrieveUseCase) appendReasonerSummary(ctx context.Context, bundle *domain.EvidenceBundle) {
	if uc.reasoner == nil {
		return
	}

	reasonCtx, cancel := context.WithTimeout(ctx, reasonerTimeout)
	defer cancel()

	report, err := uc.reasoner.CheckConsistency(reasonCtx)
	if err != nil {
		uc.logger.Debug("reasoner_skipped", "error", err)
		return
	}

	var b strings.Builder
	b.WriteString("\n=== Inferred knowledge ===\n")
	if report.Consistent {
		b.WriteString("Knowledge graph consistency: verified\n")
	} else {
		b.WriteString("Knowledge graph consistency: inconsistent")
		if report.Explanation != "" {
			b.WriteString(" (" + report.Explanation + ")")
		}
		b.WriteString("\n")
	}

	if realization, err := uc.reasoner.Realize(reasonCtx); err == nil && len(realization) > 0 {
		fmt.Fprintf(&b, "Inferred types available for %d individuals\n", len(realization))
	}

	bundle.CombinedContext += b.String()
}
