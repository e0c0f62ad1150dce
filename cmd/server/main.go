// Command server starts the quiz scoring HTTP API. By default it also runs
// the scoring worker and the stuck-job sweeper in-process, which is what the
// in-memory notifier requires.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/notify"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/upstream/fastgpt"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/app"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/config"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/usecase"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	jobRepo := postgres.NewJobRepo(pool)
	questionRepo := postgres.NewQuestionRepo(pool)
	userRepo := postgres.NewUserRepo(pool)

	// Notifier: in-memory for a single process, redis pub/sub when the
	// worker runs elsewhere.
	var hub domain.Notifier
	var redisCheck func(context.Context) error
	if cfg.NotifyDriver == config.NotifyRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		hub = notify.NewRedisHub(rdb)
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		slog.Info("redis notifier enabled", slog.String("addr", cfg.RedisAddr))
	} else {
		hub = notify.NewHub()
	}

	upstream := fastgpt.New(cfg.FastGPTBaseURL, cfg.FastGPTScoreAPIKey, cfg.FastGPTQuestionAPIKey, cfg.UpstreamTimeout)

	scoreSvc := usecase.NewScoreService(jobRepo)
	questionSvc := usecase.NewQuestionService(questionRepo, upstream)
	authSvc := usecase.NewAuthService(userRepo)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WorkerEmbedded {
		w := worker.New(jobRepo, upstream, hub, cfg.WorkerPollInterval, cfg.WorkerErrorBackoff)
		go w.Run(runCtx)
	} else if cfg.NotifyDriver != config.NotifyRedis {
		slog.Warn("worker disabled with in-memory notifier; stream events will never arrive")
	}
	if sweeper := app.NewStuckJobSweeper(jobRepo, cfg.StuckJobMaxAge, cfg.SweepInterval); sweeper != nil {
		go sweeper.Run(runCtx)
	}

	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }
	srv := httpserver.NewServer(cfg, scoreSvc, questionSvc, authSvc, hub, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
