package neo4j

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

const (
	coursesAllQuery = `
MATCH (course:Course)
OPTIONAL MATCH (teacher:Teacher)-[:TEACHES]->(course)
RETURN course.iri AS course, course.title AS title, course.description AS description,
       course.duration AS duration, teacher.iri AS teacher
ORDER BY course.iri`

	coursesForStudentQuery = `
MATCH (student:Student {iri: $student})-[:ENROLLED_IN]->(course:Course)
OPTIONAL MATCH (teacher:Teacher)-[:TEACHES]->(course)
RETURN course.iri AS course, course.title AS title, course.description AS description,
       course.duration AS duration, teacher.iri AS teacher
ORDER BY course.iri`

	tasksForStudentQuery = `
MATCH (student:Student {iri: $student})-[:SUBMITS]->(task:Task)
RETURN task.iri AS task, task.title AS title, task.dueDate AS dueDate
ORDER BY task.iri`

	resourcesForCourseQuery = `
MATCH (course:Course {iri: $course})-[:HAS_MODULE]->(:Module)-[:HAS_LESSON]->(:Lesson)-[:USES_RESOURCE]->(resource:Resource)
RETURN DISTINCT resource.iri AS resource, resource.title AS title,
       resource.url AS url, resource.kind AS kind
ORDER BY resource.iri`

	feedbackForStudentQuery = `
MATCH (student:Student {iri: $student})-[:RECEIVES_FEEDBACK]->(feedback:Feedback)
OPTIONAL MATCH (teacher:Teacher)-[:PROVIDES_FEEDBACK]->(feedback)
RETURN feedback.iri AS feedback, feedback.text AS text, teacher.iri AS teacher
ORDER BY feedback.iri`

	competenciesForCourseQuery = `
MATCH (course:Course {iri: $course})-[:HAS_LEARNING_OUTCOME]->(outcome:Outcome)-[:HAS_COMPETENCY]->(competency:Competency)
RETURN DISTINCT outcome.iri AS outcome, competency.iri AS competency, competency.label AS label
ORDER BY competency.iri`

	statementEntailedQuery = `
MATCH (entity {iri: $entity})-[rel {iri: $property}]->(object)
WHERE object.iri = $value OR toString(object.value) = $value
RETURN count(*) > 0 AS entailed`
)

func (s *Store) CoursesFor(ctx context.Context, studentIRI string) ([]domain.GraphFact, error) {
	if studentIRI == "" {
		return s.run(ctx, "graph.courses", coursesAllQuery, nil)
	}
	if err := validateIRI(studentIRI); err != nil {
		return nil, err
	}
	return s.run(ctx, "graph.courses", coursesForStudentQuery, map[string]any{"student": studentIRI})
}

func (s *Store) TasksFor(ctx context.Context, studentIRI string) ([]domain.GraphFact, error) {
	if err := validateIRI(studentIRI); err != nil {
		return nil, err
	}
	return s.run(ctx, "graph.tasks", tasksForStudentQuery, map[string]any{"student": studentIRI})
}

func (s *Store) ResourcesFor(ctx context.Context, courseIRI string) ([]domain.GraphFact, error) {
	if err := validateIRI(courseIRI); err != nil {
		return nil, err
	}
	return s.run(ctx, "graph.resources", resourcesForCourseQuery, map[string]any{"course": courseIRI})
}

func (s *Store) FeedbackFor(ctx context.Context, studentIRI string) ([]domain.GraphFact, error) {
	if err := validateIRI(studentIRI); err != nil {
		return nil, err
	}
	return s.run(ctx, "graph.feedback", feedbackForStudentQuery, map[string]any{"student": studentIRI})
}

func (s *Store) CompetenciesFor(ctx context.Context, courseIRI string) ([]domain.GraphFact, error) {
	if err := validateIRI(courseIRI); err != nil {
		return nil, err
	}
	return s.run(ctx, "graph.competencies", competenciesForCourseQuery, map[string]any{"course": courseIRI})
}

// CheckStatement reports whether the claim is already entailed by the graph.
func (s *Store) CheckStatement(ctx context.Context, entityIRI, propertyIRI, value string) (bool, error) {
	if err := validateIRI(entityIRI); err != nil {
		return false, err
	}
	if err := validateIRI(propertyIRI); err != nil {
		return false, err
	}

	facts, err := s.run(ctx, "graph.check_statement", statementEntailedQuery, map[string]any{
		"entity":   entityIRI,
		"property": propertyIRI,
		"value":    value,
	})
	if err != nil {
		return false, err
	}
	if len(facts) == 0 {
		return false, nil
	}
	entailed, _ := facts[0]["entailed"].Literal.(bool)
	return entailed, nil
}

// Query runs a caller-supplied read-only pattern. Patterns containing write
// clauses are rejected up front; the read session enforces the same on the
// server side.
func (s *Store) Query(ctx context.Context, pattern string) ([]domain.GraphFact, error) {
	if err := rejectMutations(pattern); err != nil {
		return nil, err
	}
	return s.run(ctx, "graph.raw_query", pattern, nil)
}

var iriPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:[^\s<>"{}|\\^]+$`)

func validateIRI(raw string) error {
	if raw == "" || !iriPattern.MatchString(raw) {
		return domain.WrapError(domain.ErrInvalidInput, "graph query",
			fmt.Errorf("malformed identifier: %q", raw))
	}
	return nil
}

var mutationKeywords = []string{"create ", "merge ", "delete ", "detach ", "set ", "remove ", "drop "}

func rejectMutations(pattern string) error {
	lowered := " " + strings.ToLower(pattern)
	for _, keyword := range mutationKeywords {
		if strings.Contains(lowered, " "+keyword) || strings.Contains(lowered, "\n"+keyword) {
			return domain.WrapError(domain.ErrInvalidInput, "graph query",
				fmt.Errorf("write clause %q is not allowed", strings.TrimSpace(keyword)))
		}
	}
	return nil
}
