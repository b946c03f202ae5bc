// Package diagnosis provides the diagnosis service server implementation.
package diagnosis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/orphadx-io/orphadx/internal/diagnosis/biz"
	"github.com/orphadx-io/orphadx/internal/diagnosis/handler"
	"github.com/orphadx-io/orphadx/internal/diagnosis/router"
	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	"github.com/orphadx-io/orphadx/pkg/app"
	"github.com/orphadx-io/orphadx/pkg/component/milvus"
	"github.com/orphadx-io/orphadx/pkg/infra/pool"
	"github.com/orphadx-io/orphadx/pkg/llm"
	"github.com/orphadx-io/orphadx/pkg/llm/resilience"
	"github.com/orphadx-io/orphadx/pkg/middleware"
	cacheopts "github.com/orphadx-io/orphadx/pkg/options/cache"
	diagopts "github.com/orphadx-io/orphadx/pkg/options/diagnosis"
	llmopts "github.com/orphadx-io/orphadx/pkg/options/llm"
	logopts "github.com/orphadx-io/orphadx/pkg/options/logger"
	milvusopts "github.com/orphadx-io/orphadx/pkg/options/milvus"
	httpopts "github.com/orphadx-io/orphadx/pkg/options/server/http"

	// Register LLM providers.
	_ "github.com/orphadx-io/orphadx/pkg/llm/huggingface"
	_ "github.com/orphadx-io/orphadx/pkg/llm/ollama"
	_ "github.com/orphadx-io/orphadx/pkg/llm/openai"
)

// Name is the name of the application.
const Name = "orphadx"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	MilvusOptions    *milvusopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	DiagnosisOptions *diagopts.Options
	CacheOptions     *cacheopts.Options
	ShutdownTimeout  time.Duration
}

// Server represents the diagnosis server.
type Server struct {
	httpServer      *http.Server
	service         biz.Service
	ingestOnStartup bool
	sourcePath      string
	shutdownTimeout time.Duration
	milvusClose     func()
	redisClose      func()
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. Initialize the logger.
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting diagnosis service...")

	// 2. Initialize the worker pools.
	if err := pool.InitGlobal(); err != nil {
		return nil, fmt.Errorf("failed to initialize worker pools: %w", err)
	}

	// 3. Initialize the Milvus client and vector store.
	milvusClient, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	vectorStore := store.NewMilvusStore(milvusClient)
	logger.Info("Vector store initialized")

	// 4. Initialize Redis. A failed ping disables caching instead of
	// failing startup.
	var redisClient *goredis.Client
	var redisClose func()
	cacheEnabled := cfg.CacheOptions.Enabled
	if cacheEnabled {
		redisOpts := cfg.CacheOptions.Redis
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         redisOpts.Addr(),
			Password:     redisOpts.Password,
			DB:           redisOpts.Database,
			MaxRetries:   redisOpts.MaxRetries,
			PoolSize:     redisOpts.PoolSize,
			MinIdleConns: redisOpts.MinIdleConns,
			DialTimeout:  redisOpts.DialTimeout,
			ReadTimeout:  redisOpts.ReadTimeout,
			WriteTimeout: redisOpts.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnw("failed to connect to redis, caching disabled", "error", err.Error())
			_ = redisClient.Close()
			redisClient = nil
			cacheEnabled = false
		} else {
			redisClose = func() { _ = redisClient.Close() }
			logger.Infow("Redis cache initialized",
				"addr", redisOpts.Addr(),
				"ttl", cfg.CacheOptions.TTL)
		}
	} else {
		logger.Info("Result cache is disabled")
	}

	// 5. Initialize the LLM providers. The embedding provider is wrapped
	// with retry plus circuit breaker and a content-hash cache; the same
	// wrapped provider serves both ingestion and query embedding.
	baseEmbedder, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	resilientEmbedder := resilience.NewResilientEmbeddingProvider(baseEmbedder, nil, nil)
	embedder, err := llm.NewCachedEmbeddingProvider(resilientEmbedder, redisClient, &llm.EmbeddingCacheConfig{
		Size:      cfg.DiagnosisOptions.EmbeddingCacheSize,
		TTL:       24 * time.Hour,
		KeyPrefix: "emb:",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
		"cache_size", cfg.DiagnosisOptions.EmbeddingCacheSize)

	baseChat, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	chatProvider := resilience.NewResilientChatProvider(baseChat, nil, nil)
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model)

	// 6. Initialize the pipeline. An invalid chunking configuration fails
	// startup here.
	chunker, err := biz.NewChunker(&biz.ChunkerConfig{
		ChunkSize: cfg.DiagnosisOptions.ChunkSize,
		Overlap:   cfg.DiagnosisOptions.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}

	ingester := biz.NewIngester(chunker, embedder, vectorStore, &biz.IngesterConfig{
		Collection:      cfg.DiagnosisOptions.Collection,
		Dimension:       cfg.DiagnosisOptions.EmbeddingDim,
		InsertBatchSize: 100,
	})
	retriever := biz.NewRetriever(embedder, vectorStore, &biz.RetrieverConfig{
		Collection: cfg.DiagnosisOptions.Collection,
		TopK:       cfg.DiagnosisOptions.TopK,
	})
	composer := biz.NewComposer(chatProvider, nil)
	queryCache := biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
		Enabled:   cacheEnabled,
		TTL:       cfg.CacheOptions.TTL,
		KeyPrefix: cfg.CacheOptions.KeyPrefix,
	})

	service := biz.NewService(ingester, retriever, composer, queryCache, vectorStore, cfg.DiagnosisOptions.Collection)
	logger.Infow("Diagnosis service initialized",
		"collection", cfg.DiagnosisOptions.Collection,
		"top_k", cfg.DiagnosisOptions.TopK,
		"cache.enabled", cacheEnabled)

	// 7. Initialize the HTTP server.
	if !cfg.LogOptions.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(),
	)

	h := handler.NewDiagnosisHandler(service, vectorStore, cfg.DiagnosisOptions.Collection, cfg.DiagnosisOptions.SourcePath, queryCache, embedder, chatProvider)
	router.Register(engine, h)

	httpServer := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("Diagnosis service is ready")
	return &Server{
		httpServer:      httpServer,
		service:         service,
		ingestOnStartup: cfg.DiagnosisOptions.IngestOnStartup,
		sourcePath:      cfg.DiagnosisOptions.SourcePath,
		shutdownTimeout: cfg.ShutdownTimeout,
		milvusClose:     func() { _ = milvusClient.Close(context.Background()) },
		redisClose:      redisClose,
	}, nil
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		pool.CloseGlobal()
		if s.milvusClose != nil {
			s.milvusClose()
		}
		if s.redisClose != nil {
			s.redisClose()
		}
	}()

	if s.ingestOnStartup {
		s.ingestAsync(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// ingestAsync runs the startup ingestion on the background pool so the
// server can start serving health checks immediately.
func (s *Server) ingestAsync(ctx context.Context) {
	path := s.sourcePath
	task := func() {
		logger.Infow("starting ingestion", "source", path)
		report, err := s.service.Ingest(ctx, path)
		if err != nil {
			logger.Errorw("startup ingestion failed", "source", path, "error", err.Error())
			return
		}
		logger.Infow("startup ingestion completed",
			"records", report.Records,
			"skipped", report.Skipped,
			"chunks", report.Chunks,
			"errors", len(report.Errors))
	}

	if err := pool.SubmitToType(pool.BackgroundPool, task); err != nil {
		logger.Warnw("background pool unavailable, falling back to goroutine", "error", err.Error())
		go task()
	}
}
