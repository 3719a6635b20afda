package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/selfcheck-rag/internal/bootstrap"
	"github.com/kirillkom/selfcheck-rag/internal/config"
	"github.com/kirillkom/selfcheck-rag/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <question>\n", os.Args[0])
		os.Exit(1)
	}
	question := strings.Join(os.Args[1:], " ")

	cfg := config.Load()
	logger := logging.New("selfcheck-rag", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		go func() {
			addr := ":" + cfg.MetricsPort
			if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics_listener_failed", "error", err)
			}
		}()
	}

	chunks, err := app.IngestUC.Build(ctx)
	if err != nil {
		logger.Error("ingest_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingest_finished", "chunks", chunks)

	report, err := app.RefineUC.Answer(ctx, question)
	if err != nil {
		logger.Error("run_failed", "error", err)
		os.Exit(1)
	}

	for _, round := range report.Rounds {
		app.Metrics.ObserveRound(
			round.Evaluation.Score,
			time.Duration(round.ElapsedSec*float64(time.Second)),
			round.GuardFallback,
			round.EvalFallback,
		)
	}
	app.Metrics.FinishRun(string(report.Termination), len(report.Rounds))

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Error("report_encoding_failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
