package domain

import "fmt"

// EntityType scopes alias resolution so "ana" as a student name never
// collides with a course called "Ana".
type EntityType string

const (
	EntityStudent EntityType = "student"
	EntityCourse  EntityType = "course"
)

// GraphValue is a single bound value in a graph query row: either a
// canonical entity identifier or a literal scalar, never both.
type GraphValue struct {
	IRI     string `json:"iri,omitempty"`
	Literal any    `json:"literal,omitempty"`
}

func IRIValue(iri string) GraphValue {
	return GraphValue{IRI: iri}
}

func LiteralValue(v any) GraphValue {
	return GraphValue{Literal: v}
}

func (v GraphValue) IsIRI() bool {
	return v.IRI != ""
}

func (v GraphValue) String() string {
	if v.IRI != "" {
		return v.IRI
	}
	return fmt.Sprintf("%v", v.Literal)
}

// GraphFact is one result row keyed by bound variable name. Optional
// variables that did not bind are absent keys, never empty values.
type GraphFact map[string]GraphValue

func (f GraphFact) StringValue(key string) string {
	value, ok := f[key]
	if !ok {
		return ""
	}
	return value.String()
}

// Statement is a single (entity, property, value) claim to verify against
// the knowledge graph.
type Statement struct {
	Entity   string `json:"entity"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

type StatementCheck struct {
	Statement  Statement `json:"statement"`
	Consistent bool      `json:"consistent"`
	Reason     string    `json:"reason,omitempty"`
}

// ConsistencyReport is the reasoner's verdict on the loaded ontology.
type ConsistencyReport struct {
	Consistent  bool   `json:"consistent"`
	Explanation string `json:"explanation,omitempty"`
}
