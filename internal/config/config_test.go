package config

import "testing"

func TestLoadIncludesRoutingDefaults(t *testing.T) {
	t.Setenv("RETRIEVE_TOP_K", "")
	t.Setenv("HISTORY_WINDOW", "")
	t.Setenv("DISPATCH_TIMEOUT_SECONDS", "")
	t.Setenv("INDEX_BACKEND", "")

	cfg := Load()
	if cfg.RetrieveTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RetrieveTopK)
	}
	if cfg.HistoryWindow != 5 {
		t.Fatalf("expected default history window 5, got %d", cfg.HistoryWindow)
	}
	if cfg.DispatchTimeoutSeconds != 30 {
		t.Fatalf("expected default dispatch timeout 30, got %d", cfg.DispatchTimeoutSeconds)
	}
	if cfg.IndexBackend != "memory" {
		t.Fatalf("expected default index backend memory, got %q", cfg.IndexBackend)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("expected empty default postgres dsn, got %q", cfg.PostgresDSN)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("INDEX_BACKEND", "qdrant")
	t.Setenv("QDRANT_COLLECTION", "materials_v2")
	t.Setenv("RETRIEVE_TOP_K", "8")
	t.Setenv("API_RATE_LIMIT_RPS", "25")
	t.Setenv("API_RATE_LIMIT_BURST", "50")

	cfg := Load()
	if cfg.IndexBackend != "qdrant" {
		t.Fatalf("expected index backend override, got %q", cfg.IndexBackend)
	}
	if cfg.QdrantCollection != "materials_v2" {
		t.Fatalf("expected collection override, got %q", cfg.QdrantCollection)
	}
	if cfg.RetrieveTopK != 8 {
		t.Fatalf("expected top k 8, got %d", cfg.RetrieveTopK)
	}
	if cfg.APIRateLimitRPS != 25 {
		t.Fatalf("expected rate limit rps 25, got %d", cfg.APIRateLimitRPS)
	}
	if cfg.APIRateLimitBurst != 50 {
		t.Fatalf("expected rate limit burst 50, got %d", cfg.APIRateLimitBurst)
	}
}

func TestLoadFallsBackOnMalformedInt(t *testing.T) {
	t.Setenv("HISTORY_WINDOW", "muitos")

	cfg := Load()
	if cfg.HistoryWindow != 5 {
		t.Fatalf("expected fallback window 5 on malformed value, got %d", cfg.HistoryWindow)
	}
}
