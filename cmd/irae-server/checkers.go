package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mommyshops/irae/internal/infrastructure/database/neo4j"
	"github.com/mommyshops/irae/internal/infrastructure/database/postgres"
	"github.com/mommyshops/irae/internal/infrastructure/database/redis"
)

// postgresHealthChecker adapts postgres.HealthCheck to handlers.HealthChecker.
type postgresHealthChecker struct {
	pool *pgxpool.Pool
}

func (c *postgresHealthChecker) Name() string { return "postgres" }

func (c *postgresHealthChecker) Check(ctx context.Context) error {
	return postgres.HealthCheck(ctx, c.pool)
}

// redisHealthChecker adapts redis.Client.HealthCheck to handlers.HealthChecker.
type redisHealthChecker struct {
	client *redis.Client
}

func (c *redisHealthChecker) Name() string { return "redis" }

func (c *redisHealthChecker) Check(ctx context.Context) error {
	return c.client.HealthCheck(ctx)
}

// neo4jHealthChecker adapts neo4j.Driver.HealthCheck to handlers.HealthChecker.
type neo4jHealthChecker struct {
	driver *neo4j.Driver
}

func (c *neo4jHealthChecker) Name() string { return "neo4j" }

func (c *neo4jHealthChecker) Check(ctx context.Context) error {
	return c.driver.HealthCheck(ctx)
}
