package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moraplatform/qa-engine/internal/config"
	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
	"github.com/moraplatform/qa-engine/internal/core/usecase"
	"github.com/moraplatform/qa-engine/internal/infrastructure/graph/neo4j"
	memoryindex "github.com/moraplatform/qa-engine/internal/infrastructure/index/memory"
	qdrantindex "github.com/moraplatform/qa-engine/internal/infrastructure/index/qdrant"
	"github.com/moraplatform/qa-engine/internal/infrastructure/llm/ollama"
	"github.com/moraplatform/qa-engine/internal/infrastructure/queue/nats"
	"github.com/moraplatform/qa-engine/internal/infrastructure/reasoner/httpapi"
	"github.com/moraplatform/qa-engine/internal/infrastructure/repository/inmemory"
	"github.com/moraplatform/qa-engine/internal/infrastructure/repository/postgres"
	"github.com/moraplatform/qa-engine/internal/infrastructure/resilience"
	"github.com/moraplatform/qa-engine/internal/infrastructure/resolver/static"
	"github.com/moraplatform/qa-engine/internal/observability/logging"
	"github.com/moraplatform/qa-engine/internal/observability/metrics"
)

// App holds the wired engine. Dispatcher, Retriever and Graph are the three
// inbound surfaces; everything else is plumbing they share.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Dispatcher ports.QueryDispatcher
	Retriever  ports.EvidenceRetriever
	Graph      ports.GraphQuerier

	HTTPMetrics *metrics.HTTPMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("qa-engine", cfg.LogLevel)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry, "api")
	dispatchMetrics := metrics.NewDispatchMetrics(registry, "api")

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).
		WithExecutor(executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	var closers []func()

	index, indexClosers, err := buildIndex(cfg, embedder, executor, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, indexClosers...)

	graphStore, err := neo4j.New(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	graphStore = graphStore.WithExecutor(executor)
	closers = append(closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = graphStore.Close(closeCtx)
	})

	resolver, err := buildResolver(cfg)
	if err != nil {
		return nil, err
	}

	var reasoner ports.Reasoner
	if cfg.ReasonerURL != "" {
		reasoner = httpapi.New(cfg.ReasonerURL)
	}

	conversations, db, err := buildConversationStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
	}

	retrieveUC := usecase.NewRetrieveUseCase(index, graphStore, resolver, reasoner, logger)

	handlers := map[domain.HandlerCategory]usecase.Handler{
		domain.CategoryConceptual:      usecase.NewConceptualHandler(retrieveUC, generator, cfg.RetrieveTopK),
		domain.CategoryRecommendation:  usecase.NewRecommendationHandler(retrieveUC, generator, cfg.RetrieveTopK),
		domain.CategoryStudentSpecific: usecase.NewStudentHandler(retrieveUC, generator, cfg.RetrieveTopK),
		domain.CategoryPlatformLookup:  usecase.NewLookupHandler(graphStore, resolver),
	}

	dispatcher := usecase.NewDispatcher(
		handlers,
		conversations,
		logger,
		usecase.WithHistoryWindow(cfg.HistoryWindow),
		usecase.WithInvokeTimeout(time.Duration(cfg.DispatchTimeoutSeconds)*time.Second),
		usecase.WithObserver(dispatchMetrics),
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Dispatcher: dispatcher,
		Retriever:  retrieveUC,
		Graph:      retrieveUC,

		HTTPMetrics: httpMetrics,

		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// buildIndex selects the text index backend. The in-memory backend loads a
// corpus snapshot from disk and listens for reload announcements; qdrant
// delegates ranking to the vector service.
func buildIndex(
	cfg config.Config,
	embedder ports.Embedder,
	executor *resilience.Executor,
	logger *slog.Logger,
) (ports.TextIndex, []func(), error) {
	switch cfg.IndexBackend {
	case "qdrant":
		return qdrantindex.New(cfg.QdrantURL, cfg.QdrantCollection, embedder), nil, nil

	case "memory":
		index := memoryindex.New(embedder)
		if _, err := os.Stat(cfg.SnapshotPath); err == nil {
			snapshot, err := memoryindex.LoadSnapshotFile(cfg.SnapshotPath)
			if err != nil {
				return nil, nil, fmt.Errorf("load corpus snapshot: %w", err)
			}
			index.ReplaceSnapshot(snapshot)
			logger.Info("corpus snapshot loaded",
				"path", cfg.SnapshotPath,
				"chunks", len(snapshot.Chunks),
			)
		} else {
			logger.Warn("corpus snapshot missing, starting with empty index",
				"path", cfg.SnapshotPath,
			)
		}

		var closers []func()
		if cfg.NATSURL != "" {
			queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
				ResilienceExecutor: executor,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("connect nats: %w", err)
			}

			subCtx, cancel := context.WithCancel(context.Background())
			go func() {
				err := queue.SubscribeSnapshotReload(subCtx, func(ctx context.Context, path string) error {
					snapshot, err := memoryindex.LoadSnapshotFile(path)
					if err != nil {
						return err
					}
					index.ReplaceSnapshot(snapshot)
					logger.Info("corpus snapshot reloaded",
						"path", path,
						"chunks", len(snapshot.Chunks),
					)
					return nil
				})
				if err != nil && subCtx.Err() == nil {
					logger.Error("snapshot reload subscription failed", "error", err)
				}
			}()
			closers = append(closers, cancel, queue.Close)
		}
		return index, closers, nil

	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

func buildResolver(cfg config.Config) (ports.EntityResolver, error) {
	if cfg.AliasesPath == "" {
		return static.Default(), nil
	}
	resolver, err := static.Load(cfg.AliasesPath)
	if err != nil {
		return nil, fmt.Errorf("load entity aliases: %w", err)
	}
	return resolver, nil
}

func buildConversationStore(ctx context.Context, cfg config.Config) (ports.ConversationStore, *sql.DB, error) {
	if cfg.PostgresDSN == "" {
		return inmemory.NewConversationStore(), nil, nil
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewConversationStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure conversation schema: %w", err)
	}
	return store, db, nil
}
