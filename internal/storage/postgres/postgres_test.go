package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaetram/mobengine/internal/config"
	"github.com/kaetram/mobengine/internal/storage/postgres"
	"github.com/kaetram/mobengine/internal/testutil"
)

func TestPool_Health(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
	pc := testutil.NewPostgresContainer(t)

	require.NoError(t, pc.Pool.Health(context.Background(), 2*time.Second))
	assert.NotNil(t, pc.Pool.DB())
}

func TestPool_CheckLedgerRequiresMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	assert.ErrorIs(t, pc.Pool.CheckLedger(ctx, 2*time.Second), postgres.ErrLedgerMissing)

	pc.ApplyMigrations(t)
	require.NoError(t, pc.Pool.CheckLedger(ctx, 2*time.Second))

	var app string
	require.NoError(t, pc.RawPool.QueryRow(ctx, `SELECT current_setting('application_name')`).Scan(&app))
	assert.Equal(t, "mobengine", app)
}

func TestNewPool_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := postgres.NewPool(ctx, config.DatabaseConfig{
		Enabled:  true,
		Host:     "127.0.0.1",
		Port:     1,
		User:     "nobody",
		Password: "nothing",
		Name:     "missing",
		SSLMode:  "disable",
		MaxConns: 1,
	})
	assert.Error(t, err)
}
