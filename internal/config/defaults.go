// Package config provides configuration loading, defaults, and validation for
// the Ingredient Resolution and Aggregation Engine.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultGRPCPort   = 9090
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "irae"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "irae.mirror-reconcile"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "irae-ingredient-records"

	DefaultNeo4jURI = "bolt://localhost:7687"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultProviders returns the registry-default priority order and weights
// named in §4.2/§4.8, pointed at each provider's conventional base URL.
// Auth env vars follow the PROVIDERID_API_KEY convention so operators can
// supply credentials without editing the config file.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{ID: "iarc", Enabled: true, BaseURL: "https://monographs.iarc.who.int/api", PathTemplate: "/agents/{canonical_name}", AuthEnvVar: "IARC_API_KEY", Priority: 1, Weight: 0},
		{ID: "fda_faers", Enabled: true, BaseURL: "https://api.fda.gov", PathTemplate: "/drug/event.json?search={canonical_name}", AuthEnvVar: "FDA_API_KEY", Priority: 2, Weight: 0.30},
		{ID: "cir", Enabled: true, BaseURL: "https://www.cir-safety.org/api", PathTemplate: "/ingredients/{canonical_name}", AuthEnvVar: "CIR_API_KEY", Priority: 3, Weight: 0.20},
		{ID: "sccs", Enabled: true, BaseURL: "https://ec.europa.eu/health/sccs/api", PathTemplate: "/opinions/{canonical_name}", AuthEnvVar: "SCCS_API_KEY", Priority: 4, Weight: 0.15},
		{ID: "invima", Enabled: true, BaseURL: "https://www.invima.gov.co/api", PathTemplate: "/cosmeticos/{canonical_name}", AuthEnvVar: "INVIMA_API_KEY", Priority: 5, Weight: 0},
		{ID: "ewg", Enabled: true, BaseURL: "https://api.ewg.org/skindeep", PathTemplate: "/ingredients/{canonical_name}", AuthEnvVar: "EWG_API_KEY", Priority: 6, Weight: 0.25},
		{ID: "iccr", Enabled: true, BaseURL: "https://www.iccr-cosmetics.org/api", PathTemplate: "/ingredients/{canonical_name}", AuthEnvVar: "ICCR_API_KEY", Priority: 7, Weight: 0.10},
		{ID: "inci_beauty", Enabled: true, BaseURL: "https://api.incibeauty.com", PathTemplate: "/ingredients/{canonical_name}", AuthEnvVar: "INCIBEAUTY_API_KEY", Priority: 8, Weight: 0},
		{ID: "cosing", Enabled: true, BaseURL: "https://ec.europa.eu/growth/tools-databases/cosing/api", PathTemplate: "/substances/{canonical_name}", AuthEnvVar: "COSING_API_KEY", Priority: 9, Weight: 0},
		{ID: "pubchem", Enabled: true, BaseURL: "https://pubchem.ncbi.nlm.nih.gov/rest/pug", PathTemplate: "/compound/name/{canonical_name}/classification/JSON", AuthEnvVar: "PUBCHEM_API_KEY", Priority: 10, Weight: 0},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults. It
// must be called after unmarshalling raw config data and before Validate() so
// that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the platform
// default. Fields that have already been set by the caller (non-zero values)
// are left unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ──────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Providers ───────────────────────────────────────────────────────────
	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}

	// ── Resilience (§4.3) ───────────────────────────────────────────────────
	if cfg.Resilience.RateLimitRPS == 0 {
		cfg.Resilience.RateLimitRPS = 10
	}
	if cfg.Resilience.RateLimitBurst == 0 {
		cfg.Resilience.RateLimitBurst = 20
	}
	if cfg.Resilience.BulkheadMaxConcurrent == 0 {
		cfg.Resilience.BulkheadMaxConcurrent = 5
	}
	if cfg.Resilience.BreakerWindowSize == 0 {
		cfg.Resilience.BreakerWindowSize = 20
	}
	if cfg.Resilience.BreakerMinCalls == 0 {
		cfg.Resilience.BreakerMinCalls = 5
	}
	if cfg.Resilience.BreakerFailureRate == 0 {
		cfg.Resilience.BreakerFailureRate = 0.5
	}
	if cfg.Resilience.BreakerOpenDuration == 0 {
		cfg.Resilience.BreakerOpenDuration = 30 * time.Second
	}
	if cfg.Resilience.BreakerHalfOpenProbes == 0 {
		cfg.Resilience.BreakerHalfOpenProbes = 3
	}
	if cfg.Resilience.RetryMaxAttempts == 0 {
		cfg.Resilience.RetryMaxAttempts = 3
	}
	if cfg.Resilience.RetryBaseDelay == 0 {
		cfg.Resilience.RetryBaseDelay = 100 * time.Millisecond
	}
	if cfg.Resilience.RetryMaxDelay == 0 {
		cfg.Resilience.RetryMaxDelay = 2 * time.Second
	}
	if cfg.Resilience.PerCallDeadline == 0 {
		cfg.Resilience.PerCallDeadline = 3 * time.Second
	}

	// ── Cache (§4.4) ────────────────────────────────────────────────────────
	if cfg.Cache.L1MaxEntries == 0 {
		cfg.Cache.L1MaxEntries = 10000
	}
	if cfg.Cache.FactTTL == 0 {
		cfg.Cache.FactTTL = 15 * time.Minute
	}
	if cfg.Cache.RecordTTL == 0 {
		cfg.Cache.RecordTTL = time.Hour
	}

	// ── Orchestrator (§4.7/§5) ──────────────────────────────────────────────
	if cfg.Orchestrator.MaxGlobalInFlight == 0 {
		cfg.Orchestrator.MaxGlobalInFlight = 64
	}
	if cfg.Orchestrator.OverallDeadline == 0 {
		cfg.Orchestrator.OverallDeadline = 30 * time.Second
	}
	if cfg.Orchestrator.RecordMaxAge == 0 {
		cfg.Orchestrator.RecordMaxAge = 24 * time.Hour
	}
	// MinProvidersForFresh's zero value (0) is itself a valid, lenient
	// setting, so it is intentionally left unset here.

	// ── Suitability (§4.7 step 6) ───────────────────────────────────────────
	if cfg.Suitability.SuitableThreshold == 0 {
		cfg.Suitability.SuitableThreshold = 75
	}
	if cfg.Suitability.CautionThreshold == 0 {
		cfg.Suitability.CautionThreshold = 50
	}

	// ── Database ────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "internal/infrastructure/database/postgres/migrations"
	}

	// ── Neo4j (§4.9) ────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.RefreshInterval == 0 {
		cfg.Neo4j.RefreshInterval = 10 * time.Minute
	}

	// ── Redis (§4.13) ───────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "irae:ratelimit:"
	}

	// ── Kafka (§4.12) ───────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "irae-reconciler"
	}

	// ── MinIO (§4.10) ───────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── OpenSearch (§4.11) ──────────────────────────────────────────────────
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = "irae"
	}

	// ── Reconciler (§4.12) ──────────────────────────────────────────────────
	if cfg.Reconciler.RetryMaxAttempts == 0 {
		cfg.Reconciler.RetryMaxAttempts = 5
	}
	if cfg.Reconciler.RetryBaseDelay == 0 {
		cfg.Reconciler.RetryBaseDelay = time.Second
	}

	// ── Log ─────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
