package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/rqgcombat/internal/config"
)

func dbConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "rqg", Password: "secret", Name: "combat",
		SSLMode: "disable", MaxConns: 7, MinConns: 2, MaxConnLifetime: 30 * time.Minute,
	}
}

func TestPoolConfig_AppliesLimitsAndRuntimeParams(t *testing.T) {
	pc, err := poolConfig(dbConfig())
	require.NoError(t, err)

	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 30*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "combat", pc.ConnConfig.Database)
	assert.Equal(t, ApplicationName, pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "5000", pc.ConnConfig.RuntimeParams["statement_timeout"])
}

func TestPoolConfig_RejectsBadSSLMode(t *testing.T) {
	cfg := dbConfig()
	cfg.SSLMode = "sometimes"
	_, err := poolConfig(cfg)
	assert.Error(t, err)
}

func TestNewPool_UnreachableHostFails(t *testing.T) {
	cfg := dbConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewPool(ctx, cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1/combat")
}
