package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/selfcheck-rag/internal/observability/metrics"
)

// Client serves the pipeline's embedding and judgment calls from a
// local Ollama instance. Structured judgments use format=json; the raw
// response text goes back to the core untouched.
type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	exec       *resilience.Executor
	metrics    *metrics.Pipeline
}

func New(baseURL, genModel, embedModel string, exec *resilience.Executor, m *metrics.Pipeline) *Client {
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
		metrics:    m,
	}
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := c.call(ctx, "embed", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrExternalCall, "embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

func (c *Client) GenerateAnswer(ctx context.Context, question string, chunks []domain.Chunk) (string, error) {
	system, user := prompts.Answer(question, chunks)
	return c.generateText(ctx, "generate_answer", joinPrompt(system, user))
}

func (c *Client) SelectRelevant(ctx context.Context, question string, candidates []domain.ScoredChunk, k int) (string, error) {
	system, user := prompts.Relevance(question, candidates, k)
	return c.generateJSON(ctx, "select_relevant", joinPrompt(system, user))
}

func (c *Client) EvaluateGrounding(ctx context.Context, question, answer string, chunks []domain.Chunk) (string, error) {
	system, user := prompts.Grounding(question, answer, chunks)
	return c.generateJSON(ctx, "evaluate_grounding", joinPrompt(system, user))
}

func (c *Client) Rewrite(ctx context.Context, question, feedback string) (string, error) {
	system, user := prompts.Rewrite(question, feedback)
	return c.generateText(ctx, "rewrite_query", joinPrompt(system, user))
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	return c.generate(ctx, operation, map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	})
}

func (c *Client) generateText(ctx context.Context, operation, prompt string) (string, error) {
	return c.generate(ctx, operation, map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	})
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	err := c.call(ctx, operation, func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, operation)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := c.exec.Execute(ctx, "ollama_"+operation, fn, classifyOllamaError)
	c.metrics.ObserveLLMCall(operation, time.Since(start), err)
	if err != nil {
		return domain.WrapError(domain.ErrExternalCall, "ollama "+operation, err)
	}
	return nil
}

func joinPrompt(system, user string) string {
	return strings.TrimSpace(system) + "\n\n" + strings.TrimSpace(user)
}
