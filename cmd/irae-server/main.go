// cmd/irae-server is the Ingredient Resolution and Aggregation Engine's API
// server entry point: it wires every infrastructure binding, resilience
// policy, and provider adapter into one orchestrator.Engine and serves it
// over HTTP and gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/mommyshops/irae/internal/aggregator"
	"github.com/mommyshops/irae/internal/audit"
	"github.com/mommyshops/irae/internal/cache"
	"github.com/mommyshops/irae/internal/canonical"
	"github.com/mommyshops/irae/internal/config"
	"github.com/mommyshops/irae/internal/dualstore"
	"github.com/mommyshops/irae/internal/health"
	"github.com/mommyshops/irae/internal/infrastructure/database/neo4j"
	"github.com/mommyshops/irae/internal/infrastructure/database/postgres"
	"github.com/mommyshops/irae/internal/infrastructure/database/postgres/repositories"
	"github.com/mommyshops/irae/internal/infrastructure/database/redis"
	"github.com/mommyshops/irae/internal/infrastructure/messaging/kafka"
	"github.com/mommyshops/irae/internal/infrastructure/search/opensearch"
	"github.com/mommyshops/irae/internal/infrastructure/storage/minio"
	ihttp "github.com/mommyshops/irae/internal/interfaces/http"
	"github.com/mommyshops/irae/internal/interfaces/http/handlers"
	"github.com/mommyshops/irae/internal/interfaces/http/middleware"
	irpc "github.com/mommyshops/irae/internal/interfaces/grpc"
	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/orchestrator"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/mommyshops/irae/internal/platform/metrics"
	"github.com/mommyshops/irae/internal/resilience"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serverVersion     = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; falling back to IRAE_* environment configuration\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: unable to load configuration: %v\n", err)
			os.Exit(1)
		}
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: unable to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log.Info("starting irae-server",
		logging.String("version", serverVersion),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.Server.GRPCPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Relational primary store (§4.6/§5) ──────────────────────────────────
	pool, err := postgres.NewConnectionPool(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to connect to postgres", logging.Err(err))
		os.Exit(1)
	}
	defer postgres.Close(pool)

	if err := postgres.RunMigrations(buildDBURL(cfg.Database), "file://"+cfg.Database.MigrationPath); err != nil {
		log.Error("failed to run database migrations", logging.Err(err))
		os.Exit(1)
	}

	ingredientRepo := repositories.NewIngredientRepo(pool, log)
	auditRepo := repositories.NewAuditRepo(pool, log)

	// ── Synonym graph (§4.9) ────────────────────────────────────────────────
	canon := canonical.New()
	var neo4jDriver *neo4j.Driver
	if cfg.Neo4j.Enabled {
		neo4jDriver, err = neo4j.NewDriver(cfg.Neo4j, log)
		if err != nil {
			log.Error("failed to connect to neo4j", logging.Err(err))
			os.Exit(1)
		}
		defer neo4jDriver.Close()

		synonymGraph := neo4j.NewSynonymGraph(neo4jDriver, log)
		go synonymGraph.RunRefreshLoop(ctx, cfg.Neo4j.RefreshInterval)
		canon = canon.WithSynonymResolver(synonymGraph)
	}

	// ── Distributed rate-limiter coordination (§4.13) ───────────────────────
	var redisClient *redis.Client
	if cfg.Resilience.Distributed {
		redisClient, err = redis.NewClient(cfg.Redis, log)
		if err != nil {
			log.Error("failed to connect to redis", logging.Err(err))
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	// ── Document-store mirror (§4.10) ───────────────────────────────────────
	var minioMirror *minio.Mirror
	if cfg.MinIO.Enabled {
		minioMirror, err = minio.New(ctx, cfg.MinIO, log)
		if err != nil {
			log.Error("failed to connect to minio", logging.Err(err))
			os.Exit(1)
		}
	}

	// ── Reconciliation event stream (§4.12) ─────────────────────────────────
	kafkaPublisher := kafka.NewPublisher(cfg.Kafka, log)
	defer kafkaPublisher.Close()

	// ── Audit search mirror (§4.11) ─────────────────────────────────────────
	var auditIndexer *opensearch.Indexer
	if cfg.OpenSearch.Enabled {
		auditIndexer, err = opensearch.New(cfg.OpenSearch, log)
		if err != nil {
			log.Error("failed to connect to opensearch", logging.Err(err))
			os.Exit(1)
		}
	}
	auditSink := audit.NewSink(auditRepo, auditIndexer, log)

	// ── Metrics (Health & Metrics component, C8) ────────────────────────────
	collector, err := metrics.NewMetricsCollector(metrics.CollectorConfig{
		Namespace:            "irae",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		log.Error("failed to initialize metrics collector", logging.Err(err))
		os.Exit(1)
	}
	appMetrics := metrics.NewAppMetrics(collector)
	grpcMetrics := metrics.NewGRPCMetrics(collector)

	// ── Provider Adapter Registry + Resilience Layer (§4.2/§4.3/§4.8 C9) ────
	latency := health.NewLatencyRecorder()
	breakers := make(map[ingredient.ProviderID]health.BreakerSnapshotter, len(cfg.Providers))
	bindings := make([]orchestrator.ProviderBinding, 0, len(cfg.Providers))

	for _, p := range cfg.Providers {
		if !p.Enabled {
			continue
		}
		adapter, err := newAdapter(p.ID, httpConfigFor(p))
		if err != nil {
			log.Warn("skipping unregistered provider", logging.String("provider", p.ID), logging.Err(err))
			continue
		}

		policy := resilience.DefaultPolicyConfig()
		policy.RateLimiter.LimitForPeriod = int(cfg.Resilience.RateLimitRPS)
		policy.RateLimiter.AcquireTimeout = cfg.Resilience.PerCallDeadline
		policy.Bulkhead = cfg.Resilience.BulkheadMaxConcurrent
		policy.Breaker.WindowSize = cfg.Resilience.BreakerWindowSize
		policy.Breaker.MinCalls = cfg.Resilience.BreakerMinCalls
		policy.Breaker.FailureRateThreshold = cfg.Resilience.BreakerFailureRate
		policy.Breaker.OpenDuration = cfg.Resilience.BreakerOpenDuration
		policy.Breaker.HalfOpenProbes = cfg.Resilience.BreakerHalfOpenProbes
		policy.Retry.MaxRetries = cfg.Resilience.RetryMaxAttempts
		policy.Retry.BaseDelay = cfg.Resilience.RetryBaseDelay
		policy.PerCallDeadline = cfg.Resilience.PerCallDeadline

		var wrapper *resilience.Wrapper
		if redisClient != nil {
			limiter := redis.NewDistributedTokenBucket(redisClient, cfg.Redis.KeyPrefix, p.ID,
				cfg.Resilience.RateLimitBurst, time.Second, cfg.Resilience.PerCallDeadline, log)
			wrapper = resilience.NewWrapperWithLimiter(adapter, policy, limiter, log)
		} else {
			wrapper = resilience.NewWrapper(adapter, policy, log)
		}

		breakers[ingredient.ProviderID(p.ID)] = wrapper
		timedFetcher := &latencyRecordingFetcher{next: wrapper, provider: ingredient.ProviderID(p.ID), recorder: latency}
		bindings = append(bindings, orchestrator.ProviderBinding{
			ID:       ingredient.ProviderID(p.ID),
			Fetcher:  audit.Wrap(timedFetcher, auditSink),
			Priority: p.Priority,
			Weight:   p.Weight,
		})
	}

	// ── Cache Tier (§4.4) ────────────────────────────────────────────────────
	cacheStore := cache.NewStore(cache.NewL1(cfg.Cache.L1MaxEntries), ingredientRepo, cfg.Cache.RecordTTL, cfg.Cache.FactTTL, log)

	// ── Dual-Store Writer (§4.6) ─────────────────────────────────────────────
	dualWriterOpts := []dualstore.Option{
		dualstore.WithMetrics(&dualstoreMetricsAdapter{metrics: appMetrics}),
		dualstore.WithReconciliationPublisher(kafkaPublisher),
	}
	if minioMirror != nil {
		dualWriterOpts = append(dualWriterOpts, dualstore.WithMirror(minioMirror))
	}
	writer := dualstore.NewWriter(ingredientRepo, log, dualWriterOpts...)

	// ── Resolver Orchestrator (§4.7) ─────────────────────────────────────────
	orchCfg := orchestrator.Config{
		MaxGlobalInFlight:    cfg.Orchestrator.MaxGlobalInFlight,
		OverallDeadline:      cfg.Orchestrator.OverallDeadline,
		PerCallDeadline:      cfg.Resilience.PerCallDeadline,
		MinProvidersForFresh: cfg.Orchestrator.MinProvidersForFresh,
		RecordMaxAge:         cfg.Orchestrator.RecordMaxAge,
		Suitability: orchestrator.SuitabilityThresholds{
			Suitable: cfg.Suitability.SuitableThreshold,
			Caution:  cfg.Suitability.CautionThreshold,
		},
		IsSensitive: orchestrator.DefaultSensitivePredicate,
	}
	aggCfg := aggregator.Config{
		PriorityOrder: providerPriorityOrder(cfg.Providers),
		Weights:       providerWeights(cfg.Providers),
	}
	storeReachable := func(ctx context.Context) bool {
		return postgres.HealthCheck(ctx, pool) == nil
	}
	engine := orchestrator.New(orchCfg, canon, cacheStore, writer, aggCfg, bindings, nil, storeReachable, log)

	reporter := health.NewReporter(breakers, latency, cacheStore, storeReachable)

	// ── HTTP transport ───────────────────────────────────────────────────────
	checkers := []handlers.HealthChecker{&postgresHealthChecker{pool: pool}}
	if redisClient != nil {
		checkers = append(checkers, &redisHealthChecker{client: redisClient})
	}
	if neo4jDriver != nil {
		checkers = append(checkers, &neo4jHealthChecker{driver: neo4jDriver})
	}

	router := ihttp.NewRouter(ihttp.RouterConfig{
		ResolveHandler:      handlers.NewResolveHandler(engine),
		HealthHandler:       handlers.NewHealthHandler(serverVersion, reporter, checkers...),
		Metrics:             collector,
		CORSMiddleware:      middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()),
		LoggingMiddleware:   middleware.RequestLogging(log, middleware.DefaultLoggingConfig()),
		RateLimitMiddleware: middleware.RateLimit(middleware.NewTokenBucketLimiter(cfg.Resilience.RateLimitRPS, cfg.Resilience.RateLimitBurst, time.Minute), middleware.DefaultRateLimitConfig()),
		Logger:              log,
	})

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── gRPC transport (health protocol) ─────────────────────────────────────
	grpcSrv, err := irpc.NewServer(cfg.GRPCServerConfig(), irpc.WithLogger(log), irpc.WithMetrics(grpcMetrics))
	if err != nil {
		log.Error("failed to initialize gRPC server", logging.Err(err))
		os.Exit(1)
	}

	go func() {
		log.Info("HTTP server listening", logging.Int("port", cfg.Server.Port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", logging.Err(err))
		}
	}()

	go func() {
		log.Info("gRPC server listening", logging.String("addr", grpcSrv.Addr()))
		if err := grpcSrv.Start(); err != nil {
			log.Error("gRPC server error", logging.Err(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, draining in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logging.Err(err))
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		log.Error("gRPC server shutdown error", logging.Err(err))
	}
	log.Info("irae-server stopped")
}

func buildDBURL(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
}

func providerPriorityOrder(cfgs []config.ProviderConfig) []ingredient.ProviderID {
	sorted := append([]config.ProviderConfig(nil), cfgs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	order := make([]ingredient.ProviderID, len(sorted))
	for i, p := range sorted {
		order[i] = ingredient.ProviderID(p.ID)
	}
	order = append(order, ingredient.ProviderLocalSeed)
	return order
}

func providerWeights(cfgs []config.ProviderConfig) map[ingredient.ProviderID]float64 {
	weights := make(map[ingredient.ProviderID]float64, len(cfgs))
	for _, p := range cfgs {
		if p.Weight > 0 {
			weights[ingredient.ProviderID(p.ID)] = p.Weight
		}
	}
	return weights
}

// latencyRecordingFetcher decorates a resilience.Wrapper with the timing
// observation Op3's Health report needs, without widening
// resilience.Wrapper's own public surface.
type latencyRecordingFetcher struct {
	next     orchestrator.Fetcher
	provider ingredient.ProviderID
	recorder *health.LatencyRecorder
}

func (f *latencyRecordingFetcher) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	start := time.Now()
	fact := f.next.Fetch(ctx, name)
	f.recorder.Record(f.provider, time.Since(start))
	return fact
}

// dualstoreMetricsAdapter adapts AppMetrics.MirrorWriteFailuresTotal to
// dualstore.Metrics.
type dualstoreMetricsAdapter struct {
	metrics *metrics.AppMetrics
}

func (a *dualstoreMetricsAdapter) IncMirrorFailure(_ string) {
	a.metrics.MirrorWriteFailuresTotal.WithLabelValues().Inc()
}
