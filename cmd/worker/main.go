// Command worker runs the scoring loop as a standalone process. Use the
// redis notifier so completion events reach the API process; with the
// in-memory notifier they stay local and streaming clients see nothing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/notify"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/upstream/fastgpt"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/app"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/config"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	jobRepo := postgres.NewJobRepo(pool)

	var hub domain.Notifier
	if cfg.NotifyDriver == config.NotifyRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		hub = notify.NewRedisHub(rdb)
	} else {
		slog.Warn("in-memory notifier in a standalone worker; events stay in this process")
		hub = notify.NewHub()
	}

	upstream := fastgpt.New(cfg.FastGPTBaseURL, cfg.FastGPTScoreAPIKey, cfg.FastGPTQuestionAPIKey, cfg.UpstreamTimeout)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sweeper := app.NewStuckJobSweeper(jobRepo, cfg.StuckJobMaxAge, cfg.SweepInterval); sweeper != nil {
		go sweeper.Run(runCtx)
	}

	w := worker.New(jobRepo, upstream, hub, cfg.WorkerPollInterval, cfg.WorkerErrorBackoff)
	w.Run(runCtx)
}
