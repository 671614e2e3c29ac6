package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

const (
	studentIRI = "http://www.exemplo.org/ead-ontologia#Estudante_Ana"
	courseIRI  = "http://www.exemplo.org/ead-ontologia#Curso1"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetrieveMergesTextAndGraphEvidence(t *testing.T) {
	index := &fakeIndex{hits: []domain.EvidenceHit{
		{
			ChunkText:       "Uma ontologia descreve conceitos e relações.",
			Source:          map[string]string{"source": "apostila.pdf"},
			SimilarityScore: 0.9,
			RawDistance:     0.111,
		},
	}}
	graph := &fakeGraph{courses: []domain.GraphFact{
		{
			"course": domain.IRIValue(courseIRI),
			"title":  domain.LiteralValue("Introdução à Lógica"),
		},
	}}
	resolver := &fakeResolver{entries: map[domain.EntityType]string{
		domain.EntityStudent: studentIRI,
	}}

	uc := NewRetrieveUseCase(index, graph, resolver, nil, testLogger())
	bundle, err := uc.Retrieve(context.Background(), "quais cursos a ana faz?", 5, true, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(bundle.TextHits) != 1 {
		t.Fatalf("expected 1 text hit, got %d", len(bundle.TextHits))
	}
	if len(bundle.GraphFacts) != 1 {
		t.Fatalf("expected 1 graph fact, got %d", len(bundle.GraphFacts))
	}
	if len(bundle.Citations.Documents) != 1 || bundle.Citations.Documents[0].Source != "apostila.pdf" {
		t.Fatalf("unexpected document citations: %+v", bundle.Citations.Documents)
	}
	if len(bundle.Citations.Entities) != 1 || bundle.Citations.Entities[0].IRI != courseIRI {
		t.Fatalf("unexpected entity citations: %+v", bundle.Citations.Entities)
	}
	if !strings.Contains(bundle.CombinedContext, "=== Document evidence ===") {
		t.Fatalf("combined context missing document section: %s", bundle.CombinedContext)
	}
	if !strings.Contains(bundle.CombinedContext, "=== Knowledge graph evidence ===") {
		t.Fatalf("combined context missing graph section: %s", bundle.CombinedContext)
	}
	if len(bundle.Degraded) != 0 {
		t.Fatalf("expected no degraded sources, got %v", bundle.Degraded)
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	uc := NewRetrieveUseCase(&fakeIndex{}, &fakeGraph{}, &fakeResolver{}, nil, testLogger())
	_, err := uc.Retrieve(context.Background(), "   ", 5, true, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestRetrieveCombinedContextIsDeterministic(t *testing.T) {
	graph := &fakeGraph{courses: []domain.GraphFact{
		{
			"course":      domain.IRIValue(courseIRI),
			"title":       domain.LiteralValue("Introdução à Lógica"),
			"description": domain.LiteralValue("Fundamentos"),
			"duration":    domain.LiteralValue(40),
			"teacher":     domain.IRIValue("http://www.exemplo.org/ead-ontologia#Prof_Carlos"),
		},
	}}
	resolver := &fakeResolver{entries: map[domain.EntityType]string{
		domain.EntityStudent: studentIRI,
	}}

	uc := NewRetrieveUseCase(&fakeIndex{}, graph, resolver, nil, testLogger())

	first, err := uc.Retrieve(context.Background(), "curso de lógica", 5, true, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := uc.Retrieve(context.Background(), "curso de lógica", 5, true, nil)
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if next.CombinedContext != first.CombinedContext {
			t.Fatalf("combined context changed between identical retrievals:\n%s\nvs\n%s",
				first.CombinedContext, next.CombinedContext)
		}
	}

	// Fact fields must render sorted by name.
	descIdx := strings.Index(first.CombinedContext, "description:")
	teacherIdx := strings.Index(first.CombinedContext, "teacher:")
	if descIdx < 0 || teacherIdx < 0 || descIdx > teacherIdx {
		t.Fatalf("fact fields not rendered in sorted order:\n%s", first.CombinedContext)
	}
}

func TestRetrievePartialGraphFailureDegradesOneBucket(t *testing.T) {
	graph := &fakeGraph{
		courses: []domain.GraphFact{
			{"course": domain.IRIValue(courseIRI)},
		},
		resourcesErr: errors.New("store timeout"),
	}
	resolver := &fakeResolver{entries: map[domain.EntityType]string{
		domain.EntityStudent: studentIRI,
		domain.EntityCourse:  courseIRI,
	}}

	uc := NewRetrieveUseCase(&fakeIndex{}, graph, resolver, nil, testLogger())
	bundle, err := uc.Retrieve(context.Background(), "cursos e recursos do curso 1", 5, true, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(bundle.GraphFacts) != 1 {
		t.Fatalf("expected surviving course facts, got %d facts", len(bundle.GraphFacts))
	}
	if len(bundle.Degraded) != 1 || bundle.Degraded[0] != "graph:resource" {
		t.Fatalf("expected degraded resource bucket, got %v", bundle.Degraded)
	}
}

func TestRetrieveTextIndexFailureIsNotFatal(t *testing.T) {
	index := &fakeIndex{err: errors.New("index offline")}
	uc := NewRetrieveUseCase(index, &fakeGraph{}, &fakeResolver{}, nil, testLogger())

	bundle, err := uc.Retrieve(context.Background(), "o que é sparql?", 5, false, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(bundle.TextHits) != 0 {
		t.Fatalf("expected no hits from failed index, got %d", len(bundle.TextHits))
	}
	if len(bundle.Degraded) != 1 || bundle.Degraded[0] != "text_index" {
		t.Fatalf("expected degraded text index, got %v", bundle.Degraded)
	}
}

func TestRetrieveSkipsRequiredBucketOnResolutionMiss(t *testing.T) {
	graph := &fakeGraph{}
	uc := NewRetrieveUseCase(&fakeIndex{}, graph, &fakeResolver{}, nil, testLogger())

	_, err := uc.Retrieve(context.Background(), "tarefas pendentes", 5, true, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	for _, call := range graph.calls {
		if call == "tasks" {
			t.Fatalf("task bucket must be skipped when no student resolves")
		}
	}
}

func TestRetrieveDeduplicatesEntityCitations(t *testing.T) {
	graph := &fakeGraph{courses: []domain.GraphFact{
		{"course": domain.IRIValue(courseIRI), "title": domain.LiteralValue("A")},
		{"course": domain.IRIValue(courseIRI), "title": domain.LiteralValue("B")},
	}}
	resolver := &fakeResolver{entries: map[domain.EntityType]string{
		domain.EntityStudent: studentIRI,
	}}

	uc := NewRetrieveUseCase(&fakeIndex{}, graph, resolver, nil, testLogger())
	bundle, err := uc.Retrieve(context.Background(), "cursos", 5, true, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(bundle.Citations.Entities) != 1 {
		t.Fatalf("expected deduplicated entity citation, got %+v", bundle.Citations.Entities)
	}
}

func TestRetrieveDeduplicatesDocumentCitations(t *testing.T) {
	hit := domain.EvidenceHit{
		ChunkText:       "mesmo trecho",
		Source:          map[string]string{"source": "apostila.pdf"},
		SimilarityScore: 0.8,
	}
	index := &fakeIndex{hits: []domain.EvidenceHit{hit, hit}}

	uc := NewRetrieveUseCase(index, &fakeGraph{}, &fakeResolver{}, nil, testLogger())
	bundle, err := uc.Retrieve(context.Background(), "o que diz a apostila?", 5, false, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(bundle.Citations.Documents) != 1 {
		t.Fatalf("expected deduplicated document citation, got %+v", bundle.Citations.Documents)
	}
}

func TestRetrieveReasonerFailureIsSwallowed(t *testing.T) {
	reasoner := &fakeReasoner{reportErr: errors.New("reasoner down")}
	uc := NewRetrieveUseCase(&fakeIndex{}, &fakeGraph{}, &fakeResolver{}, reasoner, testLogger())

	bundle, err := uc.Retrieve(context.Background(), "o que é inferência?", 5, true, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if strings.Contains(bundle.CombinedContext, "Inferred") {
		t.Fatalf("failed reasoner must not contribute context: %s", bundle.CombinedContext)
	}
}

func TestRetrieveAppendsReasonerSummary(t *testing.T) {
	reasoner := &fakeReasoner{
		report: domain.ConsistencyReport{Consistent: true},
		realization: map[string][]string{
			studentIRI: {"Estudante"},
			courseIRI:  {"Curso"},
		},
	}
	uc := NewRetrieveUseCase(&fakeIndex{}, &fakeGraph{}, &fakeResolver{}, reasoner, testLogger())

	bundle, err := uc.Retrieve(context.Background(), "o que é inferência?", 5, true, nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !strings.Contains(bundle.CombinedContext, "consistency: verified") {
		t.Fatalf("missing consistency summary: %s", bundle.CombinedContext)
	}
	if !strings.Contains(bundle.CombinedContext, "2 individuals") {
		t.Fatalf("missing realization summary: %s", bundle.CombinedContext)
	}
}

func TestVerifyStatement(t *testing.T) {
	graph := &fakeGraph{statementOK: true}
	uc := NewRetrieveUseCase(&fakeIndex{}, graph, &fakeResolver{}, nil, testLogger())

	check, err := uc.VerifyStatement(context.Background(), domain.Statement{
		Entity:   studentIRI,
		Property: "http://www.exemplo.org/ead-ontologia#estaMatriculadoEm",
		Value:    courseIRI,
	})
	if err != nil {
		t.Fatalf("VerifyStatement() error = %v", err)
	}
	if !check.Consistent {
		t.Fatalf("expected consistent statement, got %+v", check)
	}
}

func TestVerifyStatementRejectsIncompleteInput(t *testing.T) {
	graph := &fakeGraph{statementOK: true}
	uc := NewRetrieveUseCase(&fakeIndex{}, graph, &fakeResolver{}, nil, testLogger())

	check, err := uc.VerifyStatement(context.Background(), domain.Statement{Entity: studentIRI})
	if err != nil {
		t.Fatalf("VerifyStatement() error = %v", err)
	}
	if check.Consistent || check.Reason == "" {
		t.Fatalf("incomplete statement must be inconsistent with a reason, got %+v", check)
	}
	if len(graph.calls) != 0 {
		t.Fatalf("graph must not be queried for incomplete statements")
	}
}

func TestGraphQueryExtractsEntityCitations(t *testing.T) {
	graph := &fakeGraph{queryFacts: []domain.GraphFact{
		{"s": domain.IRIValue(studentIRI), "name": domain.LiteralValue("Ana")},
	}}
	uc := NewRetrieveUseCase(&fakeIndex{}, graph, &fakeResolver{}, nil, testLogger())

	facts, citations, err := uc.GraphQuery(context.Background(), "MATCH (s:Student) RETURN s.iri AS s, s.name AS name")
	if err != nil {
		t.Fatalf("GraphQuery() error = %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	if len(citations.Entities) != 1 || citations.Entities[0].IRI != studentIRI {
		t.Fatalf("unexpected citations: %+v", citations.Entities)
	}
}

func TestGraphQueryPropagatesTypedError(t *testing.T) {
	graph := &fakeGraph{queryErr: errors.New("syntax error")}
	uc := NewRetrieveUseCase(&fakeIndex{}, graph, &fakeResolver{}, nil, testLogger())

	_, _, err := uc.GraphQuery(context.Background(), "MATCH bogus")
	var graphErr *domain.GraphQueryError
	if !errors.As(err, &graphErr) {
		t.Fatalf("expected GraphQueryError, got %v", err)
	}
	if graphErr.Query != "MATCH bogus" {
		t.Fatalf("expected failing query text carried, got %q", graphErr.Query)
	}
}
