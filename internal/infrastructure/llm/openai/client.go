package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/selfcheck-rag/internal/observability/metrics"
)

type Config struct {
	APIKey            string
	BaseURL           string
	ChatModel         string
	EmbedModel        string
	Temperature       float32
	RequestsPerSecond float64
}

// Client serves every external judgment shape of the pipeline from the
// OpenAI chat and embeddings APIs. Structured judgments request JSON
// response format; parsing stays in the core, which sees the raw text.
type Client struct {
	api     *goopenai.Client
	cfg     Config
	limiter *rate.Limiter
	exec    *resilience.Executor
	metrics *metrics.Pipeline
}

func New(cfg Config, exec *resilience.Executor, m *metrics.Pipeline) *Client {
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = goopenai.GPT4oMini
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = string(goopenai.SmallEmbedding3)
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &Client{
		api:     goopenai.NewClientWithConfig(apiCfg),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		exec:    exec,
		metrics: m,
	}
}

// Embed returns one vector per input text. Vectors are normalized by
// the core, not here.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	err := c.call(ctx, "embed", func(ctx context.Context) error {
		resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Model: goopenai.EmbeddingModel(c.cfg.EmbedModel),
			Input: texts,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("embedding count mismatch: %d/%d", len(resp.Data), len(texts))
		}
		vectors = make([][]float32, len(resp.Data))
		for i, item := range resp.Data {
			vec := make([]float32, len(item.Embedding))
			for j, v := range item.Embedding {
				vec[j] = float32(v)
			}
			vectors[i] = vec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
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
	return c.chat(ctx, "generate_answer", system, user, false)
}

func (c *Client) SelectRelevant(ctx context.Context, question string, candidates []domain.ScoredChunk, k int) (string, error) {
	system, user := prompts.Relevance(question, candidates, k)
	return c.chat(ctx, "select_relevant", system, user, true)
}

func (c *Client) EvaluateGrounding(ctx context.Context, question, answer string, chunks []domain.Chunk) (string, error) {
	system, user := prompts.Grounding(question, answer, chunks)
	return c.chat(ctx, "evaluate_grounding", system, user, true)
}

func (c *Client) Rewrite(ctx context.Context, question, feedback string) (string, error) {
	system, user := prompts.Rewrite(question, feedback)
	return c.chat(ctx, "rewrite_query", system, user, false)
}

func (c *Client) chat(ctx context.Context, operation, system, user string, jsonMode bool) (string, error) {
	request := goopenai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Temperature: c.cfg.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: strings.TrimSpace(system)},
			{Role: goopenai.ChatMessageRoleUser, Content: strings.TrimSpace(user)},
		},
	}
	if jsonMode {
		request.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := c.call(ctx, operation, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, request)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices")
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// call runs one API operation through the rate limiter and the shared
// retry/breaker executor, mapping terminal failures to ErrExternalCall.
func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.WrapError(domain.ErrExternalCall, "openai "+operation, err)
	}

	start := time.Now()
	err := c.exec.Execute(ctx, "openai_"+operation, fn, classifyOpenAIError)
	c.metrics.ObserveLLMCall(operation, time.Since(start), err)
	if err != nil {
		return domain.WrapError(domain.ErrExternalCall, "openai "+operation, err)
	}
	return nil
}
