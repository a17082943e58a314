// Package config defines all configuration structures for the Ingredient
// Resolution and Aggregation Engine. No I/O or parsing logic lives here —
// only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	GRPCPort        int           `mapstructure:"grpc_port"`
}

// ProviderConfig describes one of the ten external information sources
// (§4.2/§4.8): its HTTP binding, registry priority and aggregation weight.
type ProviderConfig struct {
	ID           string  `mapstructure:"id"`
	Enabled      bool    `mapstructure:"enabled"`
	BaseURL      string  `mapstructure:"base_url"`
	PathTemplate string  `mapstructure:"path_template"`
	AuthEnvVar   string  `mapstructure:"auth_env_var"`
	AuthHeader   string  `mapstructure:"auth_header"`
	Priority     int     `mapstructure:"priority"`
	Weight       float64 `mapstructure:"weight"`
}

// ResilienceConfig holds the per-provider policy tunables of §4.3, applied
// uniformly unless a provider overrides them (not currently supported —
// uniform policy keeps the Resilience Layer's reasoning in §8 P7/P8 simple).
type ResilienceConfig struct {
	RateLimitRPS          float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst        int           `mapstructure:"rate_limit_burst"`
	BulkheadMaxConcurrent int           `mapstructure:"bulkhead_max_concurrent"`
	BreakerWindowSize     int           `mapstructure:"breaker_window_size"`
	BreakerMinCalls       int           `mapstructure:"breaker_min_calls"`
	BreakerFailureRate    float64       `mapstructure:"breaker_failure_rate"`
	BreakerOpenDuration   time.Duration `mapstructure:"breaker_open_duration"`
	BreakerHalfOpenProbes int           `mapstructure:"breaker_half_open_probes"`
	RetryMaxAttempts      int           `mapstructure:"retry_max_attempts"`
	RetryBaseDelay        time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay         time.Duration `mapstructure:"retry_max_delay"`
	PerCallDeadline       time.Duration `mapstructure:"per_call_deadline"`
	Distributed           bool          `mapstructure:"distributed"`
}

// CacheConfig holds the Cache Tier's tunables (§4.4).
type CacheConfig struct {
	L1MaxEntries int           `mapstructure:"l1_max_entries"`
	FactTTL      time.Duration `mapstructure:"fact_ttl"`
	RecordTTL    time.Duration `mapstructure:"record_ttl"`
}

// OrchestratorConfig holds the Resolver Orchestrator's tunables (§4.7/§5).
type OrchestratorConfig struct {
	MaxGlobalInFlight    int           `mapstructure:"max_global_in_flight"`
	OverallDeadline      time.Duration `mapstructure:"overall_deadline"`
	MinProvidersForFresh int           `mapstructure:"min_providers_for_fresh"`
	RecordMaxAge         time.Duration `mapstructure:"record_max_age"`
}

// SuitabilityConfig holds the §4.7 step-6 thresholds.
type SuitabilityConfig struct {
	SuitableThreshold float64 `mapstructure:"suitable_threshold"`
	CautionThreshold  float64 `mapstructure:"caution_threshold"`
}

// DatabaseConfig holds PostgreSQL connection parameters (§5's relational store).
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds the synonym-graph backend's connection parameters (§4.9).
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	RefreshInterval       time.Duration `mapstructure:"refresh_interval"`
}

// RedisConfig holds the distributed rate-limiter coordination parameters
// (§4.13). Never used for the Cache Tier itself.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the reconciliation event stream's parameters (§4.12).
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	GroupID           string   `mapstructure:"group_id"`
	ProducerRetries   int      `mapstructure:"producer_retries"`
	BatchSize         int      `mapstructure:"batch_size"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
	NumPartitions     int      `mapstructure:"num_partitions"`
}

// OpenSearchConfig holds the audit search mirror's parameters (§4.11).
type OpenSearchConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MinIOConfig holds the document-store mirror's parameters (§4.10).
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"` // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// ReconcilerConfig holds the background reconciler process's parameters (§4.12).
type ReconcilerConfig struct {
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
}

// GRPCConfig holds the gRPC transport's binding and debug tunables, derived
// from ServerConfig by GRPCServerConfig.
type GRPCConfig struct {
	Host  string
	Port  int
	Debug bool
}

// GRPCServerConfig derives the gRPC transport's binding config from the
// HTTP ServerConfig so the two transports share one source of truth for
// host/port/mode.
func (c *Config) GRPCServerConfig() *GRPCConfig {
	return &GRPCConfig{
		Host:  "0.0.0.0",
		Port:  c.Server.GRPCPort,
		Debug: c.Server.Mode == "debug",
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the engine. Every
// infrastructure component and application service reads its settings from
// the relevant sub-struct.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Providers    []ProviderConfig   `mapstructure:"providers"`
	Resilience   ResilienceConfig   `mapstructure:"resilience"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Suitability  SuitabilityConfig  `mapstructure:"suitability"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Neo4j        Neo4jConfig        `mapstructure:"neo4j"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	OpenSearch   OpenSearchConfig   `mapstructure:"opensearch"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	Reconciler   ReconcilerConfig   `mapstructure:"reconciler"`
	Log          LogConfig          `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config. It
// returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if len(c.Providers) == 0 {
		return fmt.Errorf("config: providers must contain at least one entry")
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("config: providers[].id is required")
		}
		if seen[p.ID] {
			return fmt.Errorf("config: duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true
		if p.Weight < 0 {
			return fmt.Errorf("config: providers[%s].weight must be >= 0, got %f", p.ID, p.Weight)
		}
	}

	if c.Orchestrator.MaxGlobalInFlight < 1 {
		return fmt.Errorf("config: orchestrator.max_global_in_flight must be >= 1, got %d", c.Orchestrator.MaxGlobalInFlight)
	}
	if c.Orchestrator.MinProvidersForFresh < 0 {
		return fmt.Errorf("config: orchestrator.min_providers_for_fresh must be >= 0, got %d", c.Orchestrator.MinProvidersForFresh)
	}

	if c.Cache.L1MaxEntries < 1 {
		return fmt.Errorf("config: cache.l1_max_entries must be >= 1, got %d", c.Cache.L1MaxEntries)
	}

	if c.Suitability.SuitableThreshold < c.Suitability.CautionThreshold {
		return fmt.Errorf("config: suitability.suitable_threshold must be >= caution_threshold")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	if c.MinIO.Enabled && c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required when minio.enabled is true")
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "irae.mirror-reconcile"
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
