package usecase

import (
	"strings"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// routingRule binds a handler category to the keywords that select it.
type routingRule struct {
	category domain.HandlerCategory
	keywords []string
}

// routingTable is evaluated top to bottom and the first match wins, so
// conceptual phrasing outranks recommendation requests, which outrank
// student-specific lookups, which outrank plain platform lookups. Keyword
// sets cover Portuguese and English phrasings.
var routingTable = []routingRule{
	{
		category: domain.CategoryConceptual,
		keywords: []string{
			"como", "o que", "por que", "explique", "defina", "definição",
			"conceito", "funciona", "what is", "how does", "why", "explain",
			"rag", "ontologia", "ontology", "sparql", "inferência",
			"inference", "reasoner",
		},
	},
	{
		category: domain.CategoryRecommendation,
		keywords: []string{
			"recomendar", "recomendação", "recomende", "sugerir", "sugestão",
			"sugira", "indique", "recommend", "suggest",
		},
	},
	{
		category: domain.CategoryStudentSpecific,
		keywords: []string{
			"estudante", "student", "aluno", "minhas tarefas", "meus cursos",
			"minha matrícula", "my tasks", "my courses", "my enrollment",
		},
	},
	{
		category: domain.CategoryPlatformLookup,
		keywords: []string{
			"quais cursos", "quais tarefas", "quais recursos",
			"curso específico", "tarefa específica", "recurso específico",
			"which courses", "which tasks", "which resources", "list courses",
			"list tasks", "list resources",
		},
	},
}

// Classify maps query text to a handler category. It is a pure function of
// the text: matching is case-insensitive substring search, ties are broken
// by table order, and text matching nothing routes to Conceptual.
func Classify(queryText string) domain.HandlerCategory {
	lowered := strings.ToLower(queryText)
	for _, rule := range routingTable {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.category
			}
		}
	}
	return domain.CategoryConceptual
}
