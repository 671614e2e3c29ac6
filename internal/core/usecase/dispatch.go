package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
)

const (
	defaultHistoryWindow = 5
	defaultInvokeTimeout = 30 * time.Second
)

// HandlerResult is a handler's successful output before envelope assembly.
type HandlerResult struct {
	Text      string
	Citations domain.Citations
}

// Handler answers one category of queries. The dispatcher supplies the
// conversation window; handlers never touch the store themselves.
type Handler interface {
	ID() string
	Handle(ctx context.Context, query domain.Query, history []domain.ConversationTurn) (*HandlerResult, error)
}

// DispatchObserver receives dispatch outcomes for metrics. Nil is allowed.
type DispatchObserver interface {
	ObserveDispatch(handlerID, outcome string, duration time.Duration)
	ObserveFallback(fromHandler, toHandler string)
}

// fallbackRoutes gives every category exactly one alternative: generative
// categories fall back to the direct platform lookup (which needs no LLM),
// and the lookup falls back to the conceptual handler.
var fallbackRoutes = map[domain.HandlerCategory]domain.HandlerCategory{
	domain.CategoryConceptual:      domain.CategoryPlatformLookup,
	domain.CategoryRecommendation:  domain.CategoryPlatformLookup,
	domain.CategoryStudentSpecific: domain.CategoryPlatformLookup,
	domain.CategoryPlatformLookup:  domain.CategoryConceptual,
}

// Dispatcher routes queries through the classifier to a handler and always
// returns a fully-formed envelope: one fallback hop on failure, then a
// diagnostic envelope. Conversation turns are appended through a single
// writer per request.
type Dispatcher struct {
	handlers      map[domain.HandlerCategory]Handler
	conversations ports.ConversationStore
	historyWindow int
	invokeTimeout time.Duration
	observer      DispatchObserver
	logger        *slog.Logger
}

type DispatcherOption func(*Dispatcher)

func WithHistoryWindow(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.historyWindow = n
		}
	}
}

func WithInvokeTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.invokeTimeout = timeout
		}
	}
}

func WithObserver(observer DispatchObserver) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

func NewDispatcher(
	handlers map[domain.HandlerCategory]Handler,
	conversations ports.ConversationStore,
	logger *slog.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		handlers:      handlers,
		conversations: conversations,
		historyWindow: defaultHistoryWindow,
		invokeTimeout: defaultInvokeTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, query domain.Query) *domain.ResponseEnvelope {
	start := time.Now()
	category := Classify(query.Text)
	sessionID := sessionIDFor(query)
	history := d.recentHistory(ctx, sessionID)

	d.logger.Info("dispatch_routed",
		"category", string(category),
		"session_id", sessionID,
	)

	result, handlerID, err := d.invoke(ctx, category, query, history)
	if err != nil {
		fallbackCategory := fallbackRoutes[category]
		d.logger.Warn("dispatch_fallback",
			"from", string(category),
			"to", string(fallbackCategory),
			"error", err,
		)
		if d.observer != nil {
			d.observer.ObserveFallback(string(category), string(fallbackCategory))
		}

		fallbackResult, fallbackID, fallbackErr := d.invoke(ctx, fallbackCategory, query, history)
		if fallbackErr != nil {
			d.logger.Error("dispatch_exhausted",
				"primary_error", err,
				"fallback_error", fallbackErr,
			)
			envelope := terminalEnvelope(err, fallbackErr, history)
			if d.observer != nil {
				d.observer.ObserveDispatch(envelope.HandlerID, "exhausted", time.Since(start))
			}
			return envelope
		}
		result, handlerID = fallbackResult, fallbackID
	}

	d.appendExchange(ctx, sessionID, query.Text, result.Text)
	if d.observer != nil {
		d.observer.ObserveDispatch(handlerID, "success", time.Since(start))
	}

	citations := result.Citations
	if citations.Documents == nil || citations.Entities == nil {
		normalized := domain.NewCitations()
		normalized.Documents = append(normalized.Documents, citations.Documents...)
		normalized.Entities = append(normalized.Entities, citations.Entities...)
		citations = normalized
	}

	return &domain.ResponseEnvelope{
		Text:      result.Text,
		HandlerID: handlerID,
		Citations: citations,
		History: append(history,
			domain.ConversationTurn{Role: domain.RoleUser, Content: query.Text},
			domain.ConversationTurn{Role: domain.RoleAssistant, Content: result.Text},
		),
	}
}

func (d *Dispatcher) invoke(
	ctx context.Context,
	category domain.HandlerCategory,
	query domain.Query,
	history []domain.ConversationTurn,
) (*HandlerResult, string, error) {
	handler, ok := d.handlers[category]
	if !ok {
		return nil, "", domain.WrapError(domain.ErrDispatchExhausted, "invoke",
			fmt.Errorf("no handler registered for category %q", category))
	}

	invokeCtx, cancel := context.WithTimeout(ctx, d.invokeTimeout)
	defer cancel()

	result, err := handler.Handle(invokeCtx, query, history)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.WrapError(domain.ErrGenerationUnavailable, handler.ID(), err)
		}
		return nil, handler.ID(), err
	}
	if result == nil || strings.TrimSpace(result.Text) == "" {
		// An empty answer counts as a failed invocation so the fallback
		// still gets its chance.
		return nil, handler.ID(), fmt.Errorf("%s: %w", handler.ID(), domain.ErrDispatchExhausted)
	}
	return result, handler.ID(), nil
}

func (d *Dispatcher) recentHistory(ctx context.Context, sessionID string) []domain.ConversationTurn {
	if d.conversations == nil {
		return []domain.ConversationTurn{}
	}
	history, err := d.conversations.Recent(ctx, sessionID, d.historyWindow)
	if err != nil {
		d.logger.Warn("conversation_read_degraded", "session_id", sessionID, "error", err)
		return []domain.ConversationTurn{}
	}
	if history == nil {
		history = []domain.ConversationTurn{}
	}
	return history
}

func (d *Dispatcher) appendExchange(ctx context.Context, sessionID, question, answer string) {
	if d.conversations == nil {
		return
	}
	err := d.conversations.Append(ctx, sessionID,
		domain.ConversationTurn{Role: domain.RoleUser, Content: question},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer},
	)
	if err != nil {
		d.logger.Warn("conversation_append_degraded", "session_id", sessionID, "error", err)
	}
}

// terminalEnvelope is the diagnostic response after both hops failed. It
// names the upstream generation service when either failure was a
// connection-class generation error, and stays generic otherwise.
func terminalEnvelope(primaryErr, fallbackErr error, history []domain.ConversationTurn) *domain.ResponseEnvelope {
	text := "An internal error prevented this question from being answered. Please try again."
	if domain.IsKind(primaryErr, domain.ErrGenerationUnavailable) ||
		domain.IsKind(fallbackErr, domain.ErrGenerationUnavailable) {
		text = "The text generation service is currently unreachable. Direct platform lookups may still work; please retry shortly."
	}
	return &domain.ResponseEnvelope{
		Text:      text,
		HandlerID: domain.HandlerDispatchFailed,
		Citations: domain.NewCitations(),
		History:   history,
	}
}

func sessionIDFor(query domain.Query) string {
	if id := query.ContextValue("session_id"); id != "" {
		return id
	}
	if id := query.ContextValue("student_id"); id != "" {
		return id
	}
	return "anonymous"
}
