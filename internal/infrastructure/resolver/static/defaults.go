package static

import "github.com/moraplatform/qa-engine/internal/core/domain"

const ontologyNamespace = "http://www.exemplo.org/ead-ontologia#"

// Default returns the alias table for the demo ontology shipped with the
// platform. Deployments override it with an alias file.
func Default() *Resolver {
	return New(map[domain.EntityType]map[string]string{
		domain.EntityStudent: {
			"ana":           ontologyNamespace + "Estudante_Ana",
			"estudante ana": ontologyNamespace + "Estudante_Ana",
			"estudante_ana": ontologyNamespace + "Estudante_Ana",
		},
		domain.EntityCourse: {
			"curso1":  ontologyNamespace + "Curso1",
			"curso 1": ontologyNamespace + "Curso1",
		},
	})
}
