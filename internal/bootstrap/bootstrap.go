package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/kirillkom/selfcheck-rag/internal/config"
	"github.com/kirillkom/selfcheck-rag/internal/core/ports"
	"github.com/kirillkom/selfcheck-rag/internal/core/usecase"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/chunking"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/corpus"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/llm/openai"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/selfcheck-rag/internal/infrastructure/vector/flat"
	"github.com/kirillkom/selfcheck-rag/internal/observability/metrics"
)

// llmClient is the full set of model-backed roles one provider serves.
type llmClient interface {
	ports.Embedder
	ports.AnswerGenerator
	ports.RelevanceJudge
	ports.GroundingJudge
	ports.QueryRewriter
}

type App struct {
	Config  config.Config
	Metrics *metrics.Pipeline

	IngestUC ports.IndexBuilder
	RefineUC ports.QuestionAnswerer
}

func New(cfg config.Config, log *slog.Logger) (*App, error) {
	m := metrics.NewPipeline("selfcheck-rag")

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	resilienceCfg.RetryInitialBackoff = cfg.RetryInitialBackoff
	resilienceCfg.RetryMaxBackoff = cfg.RetryMaxBackoff
	resilienceCfg.BreakerEnabled = cfg.BreakerEnabled
	exec := resilience.NewExecutor(resilienceCfg)

	client, err := newLLMClient(cfg, exec, m)
	if err != nil {
		return nil, err
	}

	var loader ports.CorpusLoader
	if cfg.CorpusPath != "" {
		loader = corpus.NewDirLoader(cfg.CorpusPath)
	} else {
		loader = corpus.NewBuiltinLoader()
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	index := flat.New(0)

	guard := usecase.NewRelevanceGuard(client, log)
	evaluator := usecase.NewGroundingEvaluator(client, log)

	ingestUC := usecase.NewIngestUseCase(loader, chunker, client, index, log)
	refineUC := usecase.NewRefineUseCase(
		client, index, guard, client, evaluator, client,
		usecase.Config{
			TargetScore: cfg.TargetScore,
			MaxRounds:   cfg.MaxRounds,
			TopK:        cfg.TopK,
			GuardK:      cfg.GuardK,
		},
		log,
	)

	return &App{
		Config:  cfg,
		Metrics: m,

		IngestUC: ingestUC,
		RefineUC: refineUC,
	}, nil
}

func newLLMClient(cfg config.Config, exec *resilience.Executor, m *metrics.Pipeline) (llmClient, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY is empty")
		}
		return openai.New(openai.Config{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.OpenAIBaseURL,
			ChatModel:         cfg.OpenAIChatModel,
			EmbedModel:        cfg.OpenAIEmbedModel,
			Temperature:       float32(cfg.OpenAITemperature),
			RequestsPerSecond: cfg.LLMRequestsPerSecond,
		}, exec, m), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, exec, m), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
