package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
)

const (
	conceptualSystemPrompt = `You are a tutor for a distance-learning platform.
Explain concepts clearly and ground every claim in the retrieved context below.
If the context does not cover the question, say so directly instead of guessing.`

	recommendationSystemPrompt = `You are a study advisor for a distance-learning platform.
Recommend courses, tasks or resources using only the retrieved context below.
For each recommendation, state briefly why it fits the request.`

	studentSystemPrompt = `You are an assistant answering questions about one specific student
of a distance-learning platform. Use only the retrieved context below and keep
answers scoped to that student.`
)

// GenerativeHandler retrieves evidence, folds it into a prompt and asks the
// generation service. One type serves every generative category; the
// category-specific parts are the system prompt and an optional query
// augmentation.
type GenerativeHandler struct {
	id           string
	systemPrompt string
	topK         int
	augment      func(domain.Query) string
	retriever    ports.EvidenceRetriever
	generator    ports.Generator
}

func NewConceptualHandler(retriever ports.EvidenceRetriever, generator ports.Generator, topK int) *GenerativeHandler {
	return &GenerativeHandler{
		id:           string(domain.CategoryConceptual),
		systemPrompt: conceptualSystemPrompt,
		topK:         topK,
		retriever:    retriever,
		generator:    generator,
	}
}

func NewRecommendationHandler(retriever ports.EvidenceRetriever, generator ports.Generator, topK int) *GenerativeHandler {
	return &GenerativeHandler{
		id:           string(domain.CategoryRecommendation),
		systemPrompt: recommendationSystemPrompt,
		topK:         topK,
		retriever:    retriever,
		generator:    generator,
	}
}

func NewStudentHandler(retriever ports.EvidenceRetriever, generator ports.Generator, topK int) *GenerativeHandler {
	return &GenerativeHandler{
		id:           string(domain.CategoryStudentSpecific),
		systemPrompt: studentSystemPrompt,
		topK:         topK,
		retriever:    retriever,
		generator:    generator,
		augment: func(query domain.Query) string {
			studentID := query.ContextValue("student_id")
			if studentID == "" {
				return query.Text
			}
			return fmt.Sprintf("%s (student: %s)", query.Text, studentID)
		},
	}
}

func (h *GenerativeHandler) ID() string {
	return h.id
}

func (h *GenerativeHandler) Handle(
	ctx context.Context,
	query domain.Query,
	history []domain.ConversationTurn,
) (*HandlerResult, error) {
	input := query.Text
	if h.augment != nil {
		input = h.augment(query)
	}

	bundle, err := h.retriever.Retrieve(ctx, input, h.topK, true, nil)
	if err != nil {
		return nil, err
	}

	prompt := input
	if bundle.CombinedContext != "" {
		prompt = input + "\n\nRetrieved context:\n" + bundle.CombinedContext
	}

	text, err := h.generator.Generate(ctx, h.systemPrompt, history, prompt)
	if err != nil {
		return nil, err
	}

	return &HandlerResult{
		Text:      strings.TrimSpace(text),
		Citations: bundle.Citations,
	}, nil
}

// LookupHandler answers platform lookups with templated text straight from
// graph convenience queries. No generation service involved, which also
// makes it the safe fallback when generation is down.
type LookupHandler struct {
	graph    ports.GraphStore
	resolver ports.EntityResolver
}

func NewLookupHandler(graph ports.GraphStore, resolver ports.EntityResolver) *LookupHandler {
	return &LookupHandler{graph: graph, resolver: resolver}
}

func (h *LookupHandler) ID() string {
	return string(domain.CategoryPlatformLookup)
}

func (h *LookupHandler) Handle(
	ctx context.Context,
	query domain.Query,
	_ []domain.ConversationTurn,
) (*HandlerResult, error) {
	lowered := strings.ToLower(query.Text)
	switch {
	case containsAny(lowered, "curso", "course", "disciplina"):
		return h.listCourses(ctx, query.Text)
	case containsAny(lowered, "tarefa", "task", "atividade"):
		return h.listTasks(ctx, query.Text)
	case containsAny(lowered, "recurso", "resource", "material"):
		return h.listResources(ctx, query.Text)
	default:
		return &HandlerResult{
			Text: "I can answer direct questions about courses, tasks and resources " +
				"on the platform. Please name what you are looking for.",
			Citations: domain.NewCitations(),
		}, nil
	}
}

func (h *LookupHandler) listCourses(ctx context.Context, queryText string) (*HandlerResult, error) {
	studentIRI, _ := h.resolver.Resolve(queryText, domain.EntityStudent)
	facts, err := h.graph.CoursesFor(ctx, studentIRI)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return &HandlerResult{Text: "No courses found.", Citations: domain.NewCitations()}, nil
	}

	var b strings.Builder
	if studentIRI != "" {
		b.WriteString("Courses for the requested student:\n")
	} else {
		b.WriteString("Available courses:\n")
	}
	for _, fact := range facts {
		fmt.Fprintf(&b, "- %s\n", orFallback(fact.StringValue("title"), fact.StringValue("course")))
		if description := fact.StringValue("description"); description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", description)
		}
		if duration := fact.StringValue("duration"); duration != "" {
			fmt.Fprintf(&b, "  Duration: %s hours\n", duration)
		}
	}

	return &HandlerResult{Text: b.String(), Citations: lookupCitations(facts)}, nil
}

func (h *LookupHandler) listTasks(ctx context.Context, queryText string) (*HandlerResult, error) {
	studentIRI, ok := h.resolver.Resolve(queryText, domain.EntityStudent)
	if !ok {
		return &HandlerResult{
			Text:      "Please name the student whose tasks you want to see.",
			Citations: domain.NewCitations(),
		}, nil
	}

	facts, err := h.graph.TasksFor(ctx, studentIRI)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return &HandlerResult{Text: "No tasks found for this student.", Citations: domain.NewCitations()}, nil
	}

	var b strings.Builder
	b.WriteString("Tasks for the requested student:\n")
	for _, fact := range facts {
		fmt.Fprintf(&b, "- %s\n", orFallback(fact.StringValue("title"), fact.StringValue("task")))
		if due := fact.StringValue("dueDate"); due != "" {
			fmt.Fprintf(&b, "  Due: %s\n", due)
		}
	}

	return &HandlerResult{Text: b.String(), Citations: lookupCitations(facts)}, nil
}

func (h *LookupHandler) listResources(ctx context.Context, queryText string) (*HandlerResult, error) {
	courseIRI, ok := h.resolver.Resolve(queryText, domain.EntityCourse)
	if !ok {
		return &HandlerResult{
			Text:      "Please name the course whose resources you want to see.",
			Citations: domain.NewCitations(),
		}, nil
	}

	facts, err := h.graph.ResourcesFor(ctx, courseIRI)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return &HandlerResult{Text: "No resources found for this course.", Citations: domain.NewCitations()}, nil
	}

	var b strings.Builder
	b.WriteString("Resources for the requested course:\n")
	for _, fact := range facts {
		fmt.Fprintf(&b, "- %s\n", orFallback(fact.StringValue("title"), fact.StringValue("resource")))
		if kind := fact.StringValue("kind"); kind != "" {
			fmt.Fprintf(&b, "  Type: %s\n", kind)
		}
		if url := fact.StringValue("url"); url != "" {
			fmt.Fprintf(&b, "  URL: %s\n", url)
		}
	}

	return &HandlerResult{Text: b.String(), Citations: lookupCitations(facts)}, nil
}

func lookupCitations(facts []domain.GraphFact) domain.Citations {
	citations := domain.NewCitations()
	citations.Entities = entityCitations(facts)
	return citations
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func orFallback(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
