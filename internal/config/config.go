package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	// Empty DSN selects the in-memory conversation store.
	PostgresDSN string

	// Empty URL disables snapshot reload events.
	NATSURL     string
	NATSSubject string

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	IndexBackend     string
	SnapshotPath     string
	QdrantURL        string
	QdrantCollection string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Empty URL disables reasoner enrichment.
	ReasonerURL string

	// Empty path falls back to the built-in alias table.
	AliasesPath string

	RetrieveTopK           int
	HistoryWindow          int
	DispatchTimeoutSeconds int

	APIRateLimitRPS   int
	APIRateLimitBurst int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "index.snapshot.reload"),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		IndexBackend:     mustEnv("INDEX_BACKEND", "memory"),
		SnapshotPath:     mustEnv("INDEX_SNAPSHOT_PATH", "./data/corpus_snapshot.json"),
		QdrantURL:        mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", "course_materials"),

		Neo4jURI:      mustEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     mustEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: mustEnv("NEO4J_PASSWORD", "neo4j"),
		Neo4jDatabase: mustEnv("NEO4J_DATABASE", "neo4j"),

		ReasonerURL: mustEnv("REASONER_URL", ""),

		AliasesPath: mustEnv("ALIASES_PATH", ""),

		RetrieveTopK:           mustEnvInt("RETRIEVE_TOP_K", 5),
		HistoryWindow:          mustEnvInt("HISTORY_WINDOW", 5),
		DispatchTimeoutSeconds: mustEnvInt("DISPATCH_TIMEOUT_SECONDS", 30),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
