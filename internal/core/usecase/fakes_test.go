package usecase

import (
	"context"
	"fmt"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

type fakeIndex struct {
	hits []domain.EvidenceHit
	err  error
}

func (f *fakeIndex) Search(_ context.Context, _ string, k int, _ map[string]string) ([]domain.EvidenceHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

// fakeGraph returns canned facts per operation and records which operations
// ran.
type fakeGraph struct {
	courses      []domain.GraphFact
	tasks        []domain.GraphFact
	resources    []domain.GraphFact
	feedback     []domain.GraphFact
	competencies []domain.GraphFact
	queryFacts   []domain.GraphFact

	coursesErr   error
	tasksErr     error
	resourcesErr error
	queryErr     error

	statementOK  bool
	statementErr error

	calls []string
}

func (f *fakeGraph) Query(_ context.Context, pattern string) ([]domain.GraphFact, error) {
	f.calls = append(f.calls, "query")
	if f.queryErr != nil {
		return nil, &domain.GraphQueryError{Query: pattern, Err: f.queryErr}
	}
	return f.queryFacts, nil
}

func (f *fakeGraph) CoursesFor(context.Context, string) ([]domain.GraphFact, error) {
	f.calls = append(f.calls, "courses")
	return f.courses, f.coursesErr
}

func (f *fakeGraph) TasksFor(context.Context, string) ([]domain.GraphFact, error) {
	f.calls = append(f.calls, "tasks")
	return f.tasks, f.tasksErr
}

func (f *fakeGraph) ResourcesFor(context.Context, string) ([]domain.GraphFact, error) {
	f.calls = append(f.calls, "resources")
	return f.resources, f.resourcesErr
}

func (f *fakeGraph) FeedbackFor(context.Context, string) ([]domain.GraphFact, error) {
	f.calls = append(f.calls, "feedback")
	return f.feedback, nil
}

func (f *fakeGraph) CompetenciesFor(context.Context, string) ([]domain.GraphFact, error) {
	f.calls = append(f.calls, "competencies")
	return f.competencies, nil
}

func (f *fakeGraph) CheckStatement(context.Context, string, string, string) (bool, error) {
	f.calls = append(f.calls, "check")
	return f.statementOK, f.statementErr
}

type fakeResolver struct {
	entries map[domain.EntityType]string
}

func (f *fakeResolver) Resolve(_ string, entityType domain.EntityType) (string, bool) {
	iri, ok := f.entries[entityType]
	return iri, ok
}

type fakeReasoner struct {
	report      domain.ConsistencyReport
	reportErr   error
	realization map[string][]string
	realizeErr  error
}

func (f *fakeReasoner) CheckConsistency(context.Context) (domain.ConsistencyReport, error) {
	return f.report, f.reportErr
}

func (f *fakeReasoner) Realize(context.Context) (map[string][]string, error) {
	return f.realization, f.realizeErr
}

type fakeGenerator struct {
	response string
	err      error

	capturedSystem  string
	capturedHistory []domain.ConversationTurn
	capturedInput   string
}

func (f *fakeGenerator) Generate(_ context.Context, system string, history []domain.ConversationTurn, input string) (string, error) {
	f.capturedSystem = system
	f.capturedHistory = history
	f.capturedInput = input
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeConversations struct {
	turns     map[string][]domain.ConversationTurn
	appendErr error
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{turns: make(map[string][]domain.ConversationTurn)}
}

func (f *fakeConversations) Append(_ context.Context, sessionID string, turns ...domain.ConversationTurn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns[sessionID] = append(f.turns[sessionID], turns...)
	return nil
}

func (f *fakeConversations) Recent(_ context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	all := f.turns[sessionID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.ConversationTurn, len(all))
	copy(out, all)
	return out, nil
}

type fakeRetriever struct {
	bundle *domain.EvidenceBundle
	err    error
}

func (f *fakeRetriever) Retrieve(context.Context, string, int, bool, map[string]string) (*domain.EvidenceBundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

func (f *fakeRetriever) VerifyStatement(context.Context, domain.Statement) (*domain.StatementCheck, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeHandler struct {
	id      string
	results []*HandlerResult
	errs    []error
	calls   int
}

func (f *fakeHandler) ID() string {
	return f.id
}

func (f *fakeHandler) Handle(context.Context, domain.Query, []domain.ConversationTurn) (*HandlerResult, error) {
	idx := f.calls
	f.calls++
	var result *HandlerResult
	var err error
	if idx < len(f.results) {
		result = f.results[idx]
	}
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return result, err
}
