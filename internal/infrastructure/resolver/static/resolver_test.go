package static

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

func TestResolveIsCaseInsensitive(t *testing.T) {
	resolver := Default()

	iri, ok := resolver.Resolve("Quais cursos a ANA faz?", domain.EntityStudent)
	if !ok {
		t.Fatalf("expected resolution for mention of ana")
	}
	if iri != "http://www.exemplo.org/ead-ontologia#Estudante_Ana" {
		t.Fatalf("unexpected IRI: %s", iri)
	}
}

func TestResolveIsScopedByEntityType(t *testing.T) {
	resolver := Default()

	if _, ok := resolver.Resolve("quem é ana?", domain.EntityCourse); ok {
		t.Fatalf("student alias must not resolve in course scope")
	}
	if _, ok := resolver.Resolve("recursos do curso 1", domain.EntityCourse); !ok {
		t.Fatalf("course alias must resolve in course scope")
	}
}

func TestResolveMissReturnsFalse(t *testing.T) {
	resolver := Default()

	iri, ok := resolver.Resolve("tarefas do joão", domain.EntityStudent)
	if ok || iri != "" {
		t.Fatalf("unknown mention must miss, got %q", iri)
	}
}

func TestResolvePrefersLongestAlias(t *testing.T) {
	resolver := New(map[domain.EntityType]map[string]string{
		domain.EntityStudent: {
			"ana":           "http://example.org/Wrong",
			"estudante ana": "http://example.org/Right",
		},
	})

	iri, ok := resolver.Resolve("tarefas da estudante ana", domain.EntityStudent)
	if !ok || iri != "http://example.org/Right" {
		t.Fatalf("longest alias must win, got %q", iri)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	resolver := New(map[domain.EntityType]map[string]string{
		domain.EntityCourse: {
			"curso a": "http://example.org/A",
			"curso b": "http://example.org/B",
		},
	})

	first, _ := resolver.Resolve("compare curso a com curso b", domain.EntityCourse)
	for i := 0; i < 50; i++ {
		next, _ := resolver.Resolve("compare curso a com curso b", domain.EntityCourse)
		if next != first {
			t.Fatalf("resolution changed between runs: %q then %q", first, next)
		}
	}
}

func TestLoadAliasFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	payload := "student:\n  maria: http://example.org/Maria\ncourse:\n  curso 2: http://example.org/Curso2\n"
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write alias file: %v", err)
	}

	resolver, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if iri, ok := resolver.Resolve("notas da maria", domain.EntityStudent); !ok || iri != "http://example.org/Maria" {
		t.Fatalf("loaded alias must resolve, got %q", iri)
	}
}
