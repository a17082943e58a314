// cmd/reconciler drains the irae.mirror-reconcile Kafka topic, retrying
// document-store mirror writes that failed synchronously on the request
// path. It runs independently of irae-server so a MinIO outage never
// blocks ingredient resolution.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mommyshops/irae/internal/config"
	"github.com/mommyshops/irae/internal/infrastructure/database/postgres"
	"github.com/mommyshops/irae/internal/infrastructure/database/postgres/repositories"
	"github.com/mommyshops/irae/internal/infrastructure/messaging/kafka"
	"github.com/mommyshops/irae/internal/infrastructure/storage/minio"
	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/mommyshops/irae/internal/platform/metrics"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultHealthPort = 8082
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for the /healthz and /metrics endpoints")
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
	log.Info("starting irae-reconciler", logging.String("group_id", cfg.Kafka.GroupID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewConnectionPool(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to connect to postgres", logging.Err(err))
		os.Exit(1)
	}
	defer postgres.Close(pool)
	ingredientRepo := repositories.NewIngredientRepo(pool, log)

	if !cfg.MinIO.Enabled {
		log.Error("reconciler requires minio.enabled=true; nothing to reconcile against")
		os.Exit(1)
	}
	mirror, err := minio.New(ctx, cfg.MinIO, log)
	if err != nil {
		log.Error("failed to connect to minio", logging.Err(err))
		os.Exit(1)
	}

	collector, err := metrics.NewMetricsCollector(metrics.CollectorConfig{
		Namespace:            "irae_reconciler",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		log.Error("failed to initialize metrics collector", logging.Err(err))
		os.Exit(1)
	}
	attempted := collector.RegisterCounter("reconcile_attempts_total", "mirror writes retried by the reconciler", "result")

	handler := newMirrorRetryHandler(ingredientRepo, mirror, attempted, log)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Reconciler, handler, log)
	defer consumer.Close()

	healthSrv := startHealthServer(*healthPort, collector, log)

	runErr := make(chan error, 1)
	go func() { runErr <- consumer.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-runErr:
		if err != nil {
			log.Error("reconciler consumer stopped with error", logging.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown error", logging.Err(err))
	}
	log.Info("irae-reconciler stopped")
}

// newMirrorRetryHandler builds the kafka.Handler that re-fetches the
// current record from the primary store and retries the mirror write.
// The canonical name is the durable join key between Postgres and the
// document store, so a stale in-flight copy is never replayed.
func newMirrorRetryHandler(
	repo *repositories.IngredientRepo,
	mirror *minio.Mirror,
	attempted metrics.CounterVec,
	log logging.Logger,
) kafka.Handler {
	return func(ctx context.Context, payload kafka.MirrorWriteFailedPayload) error {
		rec, found, err := repo.GetRecord(ctx, ingredient.CanonicalName(payload.CanonicalName))
		if err != nil {
			attempted.WithLabelValues("lookup_error").Inc()
			return fmt.Errorf("reconciler: lookup %q: %w", payload.CanonicalName, err)
		}
		if !found {
			log.Warn("skipping reconcile for record no longer in the primary store",
				logging.String("canonical_name", payload.CanonicalName))
			attempted.WithLabelValues("record_gone").Inc()
			return nil
		}

		if err := mirror.MirrorRecord(ctx, rec); err != nil {
			attempted.WithLabelValues("mirror_error").Inc()
			return fmt.Errorf("reconciler: mirror %q: %w", payload.CanonicalName, err)
		}
		attempted.WithLabelValues("success").Inc()
		log.Info("reconciled mirror write", logging.String("canonical_name", payload.CanonicalName))
		return nil
	}
}

func startHealthServer(port int, collector metrics.MetricsCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		log.Info("reconciler health server listening", logging.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}
