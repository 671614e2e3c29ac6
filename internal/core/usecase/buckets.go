package usecase

import (
	"context"
	"strings"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
)

// evidenceBucket is one topical slice of graph evidence. A query can match
// several buckets; matched buckets run concurrently and merge back in table
// order so retrieval output stays deterministic.
type evidenceBucket struct {
	name       string
	keywords   []string
	entityType domain.EntityType

	// optional buckets still run when no entity resolved, falling back to
	// the unscoped form of the query. Required buckets are skipped on a
	// resolution miss.
	optional bool

	run func(ctx context.Context, store ports.GraphStore, entityIRI string) ([]domain.GraphFact, error)
}

var evidenceBuckets = []evidenceBucket{
	{
		name:       "course",
		keywords:   []string{"curso", "course", "disciplina"},
		entityType: domain.EntityStudent,
		optional:   true,
		run: func(ctx context.Context, store ports.GraphStore, entityIRI string) ([]domain.GraphFact, error) {
			return store.CoursesFor(ctx, entityIRI)
		},
	},
	{
		name:       "task",
		keywords:   []string{"tarefa", "task", "atividade"},
		entityType: domain.EntityStudent,
		run: func(ctx context.Context, store ports.GraphStore, entityIRI string) ([]domain.GraphFact, error) {
			return store.TasksFor(ctx, entityIRI)
		},
	},
	{
		name:       "resource",
		keywords:   []string{"recurso", "resource", "material", "vídeo", "video"},
		entityType: domain.EntityCourse,
		run: func(ctx context.Context, store ports.GraphStore, entityIRI string) ([]domain.GraphFact, error) {
			return store.ResourcesFor(ctx, entityIRI)
		},
	},
	{
		name:       "feedback",
		keywords:   []string{"feedback", "avaliação", "evaluation"},
		entityType: domain.EntityStudent,
		run: func(ctx context.Context, store ports.GraphStore, entityIRI string) ([]domain.GraphFact, error) {
			return store.FeedbackFor(ctx, entityIRI)
		},
	},
	{
		name:       "competency",
		keywords:   []string{"competência", "competency", "habilidade", "skill"},
		entityType: domain.EntityCourse,
		run: func(ctx context.Context, store ports.GraphStore, entityIRI string) ([]domain.GraphFact, error) {
			return store.CompetenciesFor(ctx, entityIRI)
		},
	},
}

func matchBuckets(queryText string) []evidenceBucket {
	lowered := strings.ToLower(queryText)
	matched := make([]evidenceBucket, 0, len(evidenceBuckets))
	for _, bucket := range evidenceBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(lowered, keyword) {
				matched = append(matched, bucket)
				break
			}
		}
	}
	return matched
}
