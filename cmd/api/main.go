package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/movne-global/sales-ai-platform/cmd/mainconfig"
	"github.com/movne-global/sales-ai-platform/internal/api/router"
	"github.com/movne-global/sales-ai-platform/internal/compliance"
	appconfig "github.com/movne-global/sales-ai-platform/internal/config"
	"github.com/movne-global/sales-ai-platform/internal/conversation"
	"github.com/movne-global/sales-ai-platform/internal/extraction"
	"github.com/movne-global/sales-ai-platform/internal/knowledge"
	"github.com/movne-global/sales-ai-platform/internal/leads"
	"github.com/movne-global/sales-ai-platform/internal/observability/metrics"
	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

func main() {
	// Load .env in local development; a missing file is not an error.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting sales-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	redisClient := newRedisClient(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set, conversations and leads will not be persisted")
	}

	knowledgeStore := knowledge.Load(cfg.KnowledgeDir, logger)
	var docs knowledge.Repository
	var knowledgeHandler *knowledge.Handler
	if redisClient != nil {
		docs = knowledge.NewRedisRepository(redisClient)
		knowledgeHandler = knowledge.NewHandler(docs, logger)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	bedrockClient := conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	var geminiClient conversation.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini client unavailable, running without LLM fallback", "error", err)
		} else {
			defer gemini.Close()
			geminiClient = gemini
		}
	}
	llm := conversation.NewFallbackLLMClient(bedrockClient, geminiClient, logger,
		conversation.WithAttemptTimeout(cfg.LLMTimeout),
		conversation.WithMaxAttempts(cfg.LLMMaxAttempts),
	)

	conversationMetrics := metrics.NewConversationMetrics(nil)

	// Leads persist through whichever repository matches the deployment.
	var leadsRepo leads.Repository
	if pool != nil {
		leadsRepo = leads.NewPostgresRepository(pool)
	} else {
		leadsRepo = leads.NewInMemoryRepository()
	}

	pipelineOpts := []extraction.PipelineOption{
		extraction.WithWorkerCount(cfg.ExtractionWorkers),
	}
	var pipeline *extraction.Pipeline
	if cfg.UseMemoryQueue || cfg.ExtractionQueueURL == "" {
		pipeline = extraction.NewPipeline(extraction.NewMemoryQueue(0), leadsRepo, logger, conversationMetrics, pipelineOpts...)
	} else {
		sqsQueue := extraction.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ExtractionQueueURL)
		pipeline = extraction.NewPipeline(sqsQueue, leadsRepo, logger, conversationMetrics, pipelineOpts...)
	}

	var store *conversation.ConversationStore
	if pool != nil {
		store = conversation.NewConversationStore(pool)
	}

	engine := conversation.NewEngine(conversation.EngineConfig{
		LLM:          llm,
		Model:        cfg.BedrockModelID,
		Store:        store,
		Redis:        redisClient,
		Cache:        conversation.NewResponseCache(knowledgeStore.SalesResponses()),
		Prompts:      conversation.NewSystemPromptBuilder(knowledgeStore, docs),
		Disclaimers:  compliance.NewDisclaimerService(disclaimerConfig(knowledgeStore)),
		Leads:        pipeline,
		Metrics:      conversationMetrics,
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
	})

	routerCfg := &router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(engine, logger),
		LeadsHandler:        leads.NewHandler(leadsRepo, logger),
		KnowledgeHandler:    knowledgeHandler,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := pipeline.Shutdown(shutdownCtx); err != nil {
		logger.Error("extraction pipeline did not drain", "error", err)
	}

	logger.Info("server exited")
}

// newRedisClient connects to Redis, degrading to nil when it is unreachable
// so local development can run without conversation caching.
func newRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, conversation history cache disabled",
			"addr", cfg.RedisAddr,
			"error", err,
		)
		_ = client.Close()
		return nil
	}
	return client
}

// disclaimerConfig pulls the disclaimer text from the legal knowledge file
// when present, keeping the built-in default otherwise.
func disclaimerConfig(store *knowledge.Store) compliance.DisclaimerConfig {
	dc := compliance.DefaultDisclaimerConfig()
	if text := store.Get("disclaimer"); text != "" {
		dc.CustomText = text
	}
	return dc
}
