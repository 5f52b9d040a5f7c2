package container_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/holidaytable/planner/internal/infrastructure/config"
	"github.com/holidaytable/planner/internal/infrastructure/container"
	"github.com/holidaytable/planner/internal/infrastructure/persistence"
	"github.com/holidaytable/planner/internal/ports/inbound"
	"github.com/holidaytable/planner/pkg/healthcheck"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestModule_GraphIsComplete(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: memory\n")

	err := fx.ValidateApp(container.Options(path, container.ModeServer, container.Module))
	assert.NoError(t, err)
}

func TestCoreModule_PlannerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "storage:\n  driver: file\n  path: "+dir+"\napp:\n  log_level: error\n")

	var (
		plannerService inbound.PlannerService
		chatService    inbound.ChatService
		health         *healthcheck.HealthCheck
		store          *persistence.Store
	)
	app := fxtest.New(t,
		container.Options(path, container.ModeBatch, container.CoreModule),
		fx.Populate(&plannerService, &chatService, &health, &store),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, persistence.DriverFile, store.Driver)

	state, err := plannerService.SetPeopleCount(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 9, state.PeopleCount)

	blob, err := store.Repository.Load(context.Background(), "holiday_table_app_v1")
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"peopleCount":9`)

	transcript := chatService.Transcript("t")
	assert.Len(t, transcript.Messages, 1)

	resp := health.Check(context.Background())
	assert.NotEqual(t, healthcheck.StatusUnhealthy, resp.Status)
}

func TestStoreConfig_SQLiteUsesDatabasePath(t *testing.T) {
	cfg := &config.Config{
		Storage:  config.StorageConfig{Driver: persistence.DriverSQLite, Path: "data"},
		Database: config.DatabaseConfig{Path: "data/planner.db", LogLevel: "silent"},
		Redis:    config.RedisConfig{KeyPrefix: "ht:", Host: "cache", Port: 6380},
	}

	pc := container.StoreConfig(cfg)

	assert.Equal(t, "data/planner.db", pc.Path)
	assert.Equal(t, "silent", pc.LogLevel)
	assert.Equal(t, "ht:", pc.RedisPrefix)
	assert.Equal(t, "cache", pc.Redis.Host)
	assert.Equal(t, 6380, pc.Redis.Port)
}
