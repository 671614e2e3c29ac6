package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
	"github.com/moraplatform/qa-engine/internal/observability/metrics"
)

type Router struct {
	dispatcher ports.QueryDispatcher
	retriever  ports.EvidenceRetriever
	graph      ports.GraphQuerier

	httpMetrics *metrics.HTTPMetrics

	rateLimitRPS   int
	rateLimitBurst int

	backpressureMax  int
	backpressureWait time.Duration
}

type Option func(*Router)

func WithMetrics(m *metrics.HTTPMetrics) Option {
	return func(rt *Router) {
		rt.httpMetrics = m
	}
}

func WithRateLimit(rps, burst int) Option {
	return func(rt *Router) {
		rt.rateLimitRPS = rps
		rt.rateLimitBurst = burst
	}
}

func WithBackpressure(maxInFlight int, wait time.Duration) Option {
	return func(rt *Router) {
		rt.backpressureMax = maxInFlight
		rt.backpressureWait = wait
	}
}

func NewRouter(
	dispatcher ports.QueryDispatcher,
	retriever ports.EvidenceRetriever,
	graph ports.GraphQuerier,
	options ...Option,
) *Router {
	rt := &Router{
		dispatcher: dispatcher,
		retriever:  retriever,
		graph:      graph,
	}
	for _, option := range options {
		option(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/dispatch", rt.dispatch)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/graph/query", rt.graphQuery)
	mux.HandleFunc("/v1/verify", rt.verify)
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler())
	}

	var handler http.Handler = mux
	if rt.backpressureMax > 0 {
		handler = backpressureMiddleware(handler, rt.backpressureMax, rt.backpressureWait)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dispatch answers a question through the routing state machine. The
// dispatcher always produces an envelope, so a well-formed request never
// yields anything but 200.
func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query   string            `json:"query"`
		Context map[string]string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	envelope := rt.dispatcher.Dispatch(r.Context(), domain.Query{
		Text:    req.Query,
		Context: req.Context,
	})
	writeJSON(w, http.StatusOK, envelope)
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query    string            `json:"query"`
		K        int               `json:"k"`
		UseGraph *bool             `json:"use_graph"`
		Filters  map[string]string `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	useGraph := true
	if req.UseGraph != nil {
		useGraph = *req.UseGraph
	}

	bundle, err := rt.retriever.Retrieve(r.Context(), req.Query, req.K, useGraph, req.Filters)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (rt *Router) graphQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	facts, citations, err := rt.graph.GraphQuery(r.Context(), req.Query)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"facts":     facts,
		"citations": citations,
	})
}

func (rt *Router) verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Entity   string `json:"entity"`
		Property string `json:"property"`
		Value    string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	check, err := rt.retriever.VerifyStatement(r.Context(), domain.Statement{
		Entity:   req.Entity,
		Property: req.Property,
		Value:    req.Value,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
