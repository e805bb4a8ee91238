package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/docask/internal/ai"
	"github.com/xxxsen/docask/internal/cache"
	"github.com/xxxsen/docask/internal/config"
	"github.com/xxxsen/docask/internal/confidence"
	"github.com/xxxsen/docask/internal/embedcache"
	"github.com/xxxsen/docask/internal/embedding"
	"github.com/xxxsen/docask/internal/generation"
	"github.com/xxxsen/docask/internal/handler"
	"github.com/xxxsen/docask/internal/job"
	"github.com/xxxsen/docask/internal/middleware"
	"github.com/xxxsen/docask/internal/model"
	"github.com/xxxsen/docask/internal/prompt"
	"github.com/xxxsen/docask/internal/schedule"
	"github.com/xxxsen/docask/internal/service"
	"github.com/xxxsen/docask/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docask",
		Short: "docask query server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docask server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildEmbedder(cfg config.EmbeddingConfig) (ai.IEmbedder, error) {
	provider, err := ai.NewEmbedProvider(cfg.Provider, cfg.Data)
	if err != nil {
		return nil, err
	}
	primary := ai.NewEmbedder(provider, cfg.Model)
	if len(cfg.Fallbacks) == 0 {
		return primary, nil
	}
	entries := []ai.EmbedderEntry{{Name: cfg.Provider, Embedder: primary}}
	for i, ref := range cfg.Fallbacks {
		p, err := ai.NewEmbedProvider(ref.Provider, ref.Data)
		if err != nil {
			return nil, fmt.Errorf("embedding fallback %d: %w", i, err)
		}
		entries = append(entries, ai.EmbedderEntry{Name: ref.Provider, Embedder: ai.NewEmbedder(p, ref.Model)})
	}
	return ai.NewGroupEmbedder(entries), nil
}

func buildGenerator(cfg config.GenerationConfig) (ai.IGenerator, error) {
	provider, err := ai.NewProvider(cfg.Provider, cfg.Data)
	if err != nil {
		return nil, err
	}
	primary := ai.NewGenerator(provider, cfg.Model)
	if len(cfg.Fallbacks) == 0 {
		return primary, nil
	}
	entries := []ai.GeneratorEntry{{Name: primary.ModelID(), Generator: primary}}
	for i, ref := range cfg.Fallbacks {
		p, err := ai.NewProvider(ref.Provider, ref.Data)
		if err != nil {
			return nil, fmt.Errorf("generation fallback %d: %w", i, err)
		}
		g := ai.NewGenerator(p, ref.Model)
		entries = append(entries, ai.GeneratorEntry{Name: g.ModelID(), Generator: g})
	}
	return ai.NewGroupGenerator(entries), nil
}

func buildRAGService(cfg *config.Config) (*service.RAGService, error) {
	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(embedder,
		cfg.Embedding.CacheSize,
		time.Duration(cfg.Embedding.CacheTTLSeconds)*time.Second,
	)
	embedClient := embedding.NewClient(embedder, embedding.Config{
		Dimension: cfg.Embedding.Dimension,
		Timeout:   time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		Attempts:  cfg.Embedding.Attempts,
	})

	logutil.GetLogger(context.Background()).Info("embedding client ready",
		zap.String("model", embedClient.ModelName()),
		zap.Int("dimension", embedClient.Dimension()),
	)

	store, err := vectorstore.New(cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	gen, err := buildGenerator(cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("init generation provider: %w", err)
	}
	genClient := generation.NewClient(gen, generation.Config{
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	})

	assembler := prompt.NewAssembler(cfg.Prompt.MaxPassages, cfg.Prompt.MaxPassageChars)
	evaluator := confidence.NewEvaluator(cfg.Confidence.Threshold)

	var answers *cache.Cache[*model.Answer]
	var searches *cache.Cache[*model.SearchResult]
	if !cfg.Cache.Disabled {
		answers = cache.New[*model.Answer](cfg.Cache.AnswerCapacity, time.Duration(cfg.Cache.AnswerTTLSeconds)*time.Second)
		searches = cache.New[*model.SearchResult](cfg.Cache.SearchCapacity, time.Duration(cfg.Cache.SearchTTLSeconds)*time.Second)
	}

	return service.NewRAGService(embedClient, store, assembler, genClient, evaluator, answers, searches), nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("generation_provider", cfg.Generation.Provider),
	)

	ragService, err := buildRAGService(cfg)
	if err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Query:  handler.NewQueryHandler(ragService),
		Health: handler.NewHealthHandler(ragService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			middleware.RateLimit(time.Duration(cfg.RateLimitMs)*time.Millisecond),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if !cfg.Cache.Disabled {
		if err := scheduler.AddJob(job.NewCacheStatsJob(ragService), cfg.Cache.StatsCron); err != nil {
			return fmt.Errorf("schedule cache stats job: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
