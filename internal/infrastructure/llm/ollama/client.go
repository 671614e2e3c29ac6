package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moraplatform/qa-engine/internal/core/domain"
	"github.com/moraplatform/qa-engine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithExecutor routes generation and embedding calls through the shared
// retry/breaker executor.
func (c *Client) WithExecutor(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "ollama.embed", "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Generator answers with the configured generation model. Failures are
// classified into the engine error taxonomy: connection-class problems
// become ErrGenerationUnavailable, everything else ErrGeneration.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(
	ctx context.Context,
	systemPrompt string,
	history []domain.ConversationTurn,
	input string,
) (string, error) {
	prompt := buildChatPrompt(systemPrompt, history, input)
	text, err := g.client.generateText(ctx, prompt)
	if err != nil {
		return "", classifyGenerationError("generate", err)
	}
	return text, nil
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, "ollama.generate", "/api/generate", request, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) call(ctx context.Context, breakerOp, path string, payload, out any, operation string) error {
	request := func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}
	if c.executor == nil {
		return request(ctx)
	}
	return c.executor.Execute(ctx, breakerOp, request, classifyOllamaError)
}
