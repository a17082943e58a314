package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultGRPCPort, cfg.Server.GRPCPort)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)

	assert.Len(t, cfg.Providers, len(DefaultProviders()))

	assert.Equal(t, 10.0, cfg.Resilience.RateLimitRPS)
	assert.Equal(t, 5, cfg.Resilience.BulkheadMaxConcurrent)
	assert.Equal(t, 20, cfg.Resilience.BreakerWindowSize)

	assert.Equal(t, 10000, cfg.Cache.L1MaxEntries)

	assert.Equal(t, 64, cfg.Orchestrator.MaxGlobalInFlight)

	assert.Equal(t, 75.0, cfg.Suitability.SuitableThreshold)
	assert.Equal(t, 50.0, cfg.Suitability.CautionThreshold)

	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, DefaultDBMaxConns, cfg.Database.MaxConns)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.Equal(t, DefaultMinIOEndpoint, cfg.MinIO.Endpoint)
	assert.Equal(t, DefaultMinIOBucket, cfg.MinIO.Bucket)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Database.Host = "custom-host"

	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "custom-host", cfg.Database.Host)
	assert.Equal(t, DefaultDBPort, cfg.Database.Port) // still defaulted
}

func TestApplyDefaults_PreserveSliceValues(t *testing.T) {
	cfg := &Config{}
	brokers := []string{"kafka-1:9092", "kafka-2:9092"}
	cfg.Kafka.Brokers = brokers

	ApplyDefaults(cfg)

	assert.Equal(t, brokers, cfg.Kafka.Brokers)
}

func TestApplyDefaults_PreserveProviders(t *testing.T) {
	cfg := &Config{Providers: []ProviderConfig{{ID: "only-one"}}}
	ApplyDefaults(cfg)
	assert.Len(t, cfg.Providers, 1)
	assert.Equal(t, "only-one", cfg.Providers[0].ID)
}
