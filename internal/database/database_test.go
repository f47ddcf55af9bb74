package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-ta-go/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "ta", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=ta sslmode=disable", DSN(cfg))

	cfg.DatabaseURL = "postgres://u:p@db:5432/ta"
	assert.Equal(t, "postgres://u:p@db:5432/ta", DSN(cfg))
}

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		DatabaseURL:     "postgres://u:p@localhost:5432/ta?sslmode=disable",
		MaxOpenConns:    10,
		MaxIdleConns:    20,
		ConnMaxLifetime: "5m",
		ConnMaxIdleTime: "1m",
	}
	poolCfg, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(10), poolCfg.MaxConns)
	assert.Equal(t, int32(10), poolCfg.MinConns)
	assert.Equal(t, 5*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, time.Minute, poolCfg.MaxConnIdleTime)

	cfg.ConnMaxIdleTime = "soon"
	_, err = PoolConfig(cfg)
	assert.ErrorContains(t, err, "conn_max_idle_time")
}

func TestNilConnections(t *testing.T) {
	var db *PostgresDB
	assert.NotPanics(t, db.Close)
	assert.ErrorIs(t, db.HealthCheck(context.Background()), errNotConnected)

	var rc *RedisClient
	assert.NotPanics(t, rc.Close)
	assert.ErrorIs(t, (&RedisClient{}).HealthCheck(context.Background()), errNotConnected)
}

func TestNewRedisConnection_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := NewRedisConnection(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestRedisOptions(t *testing.T) {
	opts := RedisOptions(config.RedisConfig{Host: "cache", Port: 6380, DB: 2, Password: "x"})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}
