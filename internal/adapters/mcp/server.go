package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/core/ports"
)

// Server exposes the engine to MCP clients over stdio. Each tool mirrors one
// HTTP endpoint so agents get the same contract as API callers.
type Server struct {
	dispatcher ports.QueryDispatcher
	retriever  ports.EvidenceRetriever
	graph      ports.GraphQuerier

	mcpServer *server.MCPServer
}

func NewServer(
	dispatcher ports.QueryDispatcher,
	retriever ports.EvidenceRetriever,
	graph ports.GraphQuerier,
	version string,
) *Server {
	s := &Server{
		dispatcher: dispatcher,
		retriever:  retriever,
		graph:      graph,
	}

	mcpServer := server.NewMCPServer(
		"qa-engine",
		version,
		server.WithToolCapabilities(false),
	)

	mcpServer.AddTool(
		mcp.NewTool("dispatch_question",
			mcp.WithDescription("Answer a question about courses, tasks, resources or concepts. Routes to the most suitable handler and returns text with citations."),
			mcp.WithString("query", mcp.Required(), mcp.Description("The question text, Portuguese or English.")),
			mcp.WithString("session_id", mcp.Description("Conversation session identifier for history continuity.")),
			mcp.WithString("student_id", mcp.Description("Student identifier used to scope student-specific answers.")),
		),
		s.handleDispatch,
	)

	mcpServer.AddTool(
		mcp.NewTool("retrieve_evidence",
			mcp.WithDescription("Retrieve hybrid evidence for a query: semantic text hits plus knowledge graph facts, with a combined context block."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query to retrieve evidence for.")),
			mcp.WithNumber("k", mcp.Description("Maximum number of text hits to return.")),
			mcp.WithBoolean("use_graph", mcp.Description("Include knowledge graph facts. Defaults to true.")),
		),
		s.handleRetrieve,
	)

	mcpServer.AddTool(
		mcp.NewTool("graph_query",
			mcp.WithDescription("Run a read-only Cypher pattern against the knowledge graph and return facts with entity citations."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Read-only Cypher query.")),
		),
		s.handleGraphQuery,
	)

	s.mcpServer = mcpServer
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryText, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	queryContext := map[string]string{}
	if sessionID := request.GetString("session_id", ""); sessionID != "" {
		queryContext["session_id"] = sessionID
	}
	if studentID := request.GetString("student_id", ""); studentID != "" {
		queryContext["student_id"] = studentID
	}

	envelope := s.dispatcher.Dispatch(ctx, domain.Query{
		Text:    queryText,
		Context: queryContext,
	})
	return jsonToolResult(envelope)
}

func (s *Server) handleRetrieve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryText, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	k := request.GetInt("k", 0)
	useGraph := request.GetBool("use_graph", true)

	bundle, err := s.retriever.Retrieve(ctx, queryText, k, useGraph, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(bundle)
}

func (s *Server) handleGraphQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	facts, citations, err := s.graph.GraphQuery(ctx, pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(map[string]any{
		"facts":     facts,
		"citations": citations,
	})
}

func jsonToolResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
