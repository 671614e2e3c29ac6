package static

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// Resolver maps free-text entity mentions to canonical IRIs using a static
// alias table scoped per entity type. Matching is a case-insensitive
// substring check of the alias inside the query; when several aliases match,
// the longest one wins so "estudante ana" beats "ana".
type Resolver struct {
	aliases map[domain.EntityType][]aliasEntry
}

type aliasEntry struct {
	alias string
	iri   string
}

func New(tables map[domain.EntityType]map[string]string) *Resolver {
	resolver := &Resolver{aliases: make(map[domain.EntityType][]aliasEntry, len(tables))}
	for entityType, table := range tables {
		entries := make([]aliasEntry, 0, len(table))
		for alias, iri := range table {
			entries = append(entries, aliasEntry{
				alias: strings.ToLower(strings.TrimSpace(alias)),
				iri:   iri,
			})
		}
		// Longest alias first; ties break lexically so resolution never
		// depends on map iteration order.
		sort.Slice(entries, func(i, j int) bool {
			if len(entries[i].alias) != len(entries[j].alias) {
				return len(entries[i].alias) > len(entries[j].alias)
			}
			return entries[i].alias < entries[j].alias
		})
		resolver.aliases[entityType] = entries
	}
	return resolver
}

// Load reads an alias table file keyed by entity type:
//
//	student:
//	  ana: http://www.exemplo.org/ead-ontologia#Estudante_Ana
//	course:
//	  curso 1: http://www.exemplo.org/ead-ontologia#Curso1
func Load(path string) (*Resolver, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}

	var parsed map[domain.EntityType]map[string]string
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	return New(parsed), nil
}

func (r *Resolver) Resolve(queryText string, entityType domain.EntityType) (string, bool) {
	lowered := strings.ToLower(queryText)
	for _, entry := range r.aliases[entityType] {
		if entry.alias == "" {
			continue
		}
		if strings.Contains(lowered, entry.alias) {
			return entry.iri, true
		}
	}
	return "", false
}
