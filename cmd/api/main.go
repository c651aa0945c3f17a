package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/analytics"
	"github.com/mockprep/backend/internal/api"
	"github.com/mockprep/backend/internal/api/handlers"
	"github.com/mockprep/backend/internal/cache/redis"
	"github.com/mockprep/backend/internal/feedback"
	"github.com/mockprep/backend/internal/interview"
	"github.com/mockprep/backend/internal/jobs"
	"github.com/mockprep/backend/internal/llm"
	"github.com/mockprep/backend/internal/metrics"
	"github.com/mockprep/backend/internal/middleware/ratelimit"
	"github.com/mockprep/backend/internal/storage/sqlite"
	"github.com/mockprep/backend/pkg/config"
	appLogger "github.com/mockprep/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting mockprep API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:              cfg.LLM.APIKey,
		BaseURL:             cfg.LLM.BaseURL,
		Model:               cfg.LLM.Model,
		Temperature:         cfg.LLM.Temperature,
		MaxTokens:           cfg.LLM.MaxTokens,
		Timeout:             time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		MaxAttempts:         cfg.LLM.MaxAttempts,
		FeedbackMaxAttempts: cfg.LLM.FeedbackMaxAttempts,
	})

	var interviewOpts []interview.Option
	var feedbackOpts []feedback.Option
	var analyticsOpts []analytics.Option
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.SubmissionTTLSec)*time.Second,
			time.Duration(cfg.Redis.AnalyticsTTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()

		feedbackOpts = append(feedbackOpts,
			feedback.WithSubmissionGuard(redisClient),
			feedback.WithCacheInvalidator(redisClient),
		)
		analyticsOpts = append(analyticsOpts, analytics.WithCache(redisClient))
		interviewOpts = append(interviewOpts, interview.WithCacheInvalidator(redisClient))
	} else {
		appLogger.Warn("Redis disabled, submissions are serialised by the database only")
	}

	jobService := jobs.NewService(sqliteClient)
	interviewService := interview.NewService(sqliteClient, llmClient, interviewOpts...)
	feedbackService := feedback.NewService(sqliteClient, llmClient, feedbackOpts...)
	analyticsService := analytics.NewService(sqliteClient, analyticsOpts...)

	var limiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
			Burst:                cfg.RateLimit.Burst,
			Logger:               appLogger.GetLogger(),
		})
		defer limiter.Stop()
	}

	app := api.NewApp(api.Options{
		Server:      cfg.Server,
		RateLimiter: limiter,
		ReadyCheck:  sqliteClient.Ping,
		AccessLog:   true,
	}, api.Handlers{
		Jobs:       handlers.NewJobHandler(jobService),
		Interviews: handlers.NewInterviewHandler(interviewService),
		Feedback:   handlers.NewFeedbackHandler(feedbackService),
		Analytics:  handlers.NewAnalyticsHandler(analyticsService),
		Sessions:   handlers.NewSessionHandler(interviewService, feedbackService),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
