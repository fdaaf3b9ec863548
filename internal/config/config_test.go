package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedauth "github.com/focusnest/seeding-service/pkg/auth"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GCP_PROJECT_ID", "LOG_LEVEL", "DEFAULT_TIMEZONE", "DATASTORE",
		"AUTH_MODE", "CLERK_JWKS_URL", "CLERK_AUDIENCE", "CLERK_ISSUER",
		"FIRESTORE_EMULATOR_HOST", "FIRESTORE_DATABASE_ID", "DATABASE_URL",
		"REDIS_URL", "PROGRESS_CACHE_TTL", "ARCHIVE_BUCKET", "METRICS_ENABLED",
		"SQL_MAX_OPEN_CONNS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DataStoreMemory, cfg.DataStore)
	assert.Equal(t, sharedauth.ModeNoop, cfg.Auth.Mode)
	assert.Equal(t, 15*time.Minute, cfg.Redis.TTL)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 10, cfg.SQL.MaxOpenConns)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_SQLiteDefaultsDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATASTORE", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DataStoreSQLite, cfg.DataStore)
	assert.Equal(t, "seeding.db", cfg.SQL.DSN)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown datastore":         {"DATASTORE": "mongo"},
		"firestore without project": {"DATASTORE": "firestore"},
		"postgres without dsn":      {"DATASTORE": "postgres"},
		"clerk without jwks":        {"AUTH_MODE": "clerk"},
		"unknown auth mode":         {"AUTH_MODE": "basic"},
		"bad timezone":              {"DEFAULT_TIMEZONE": "Mars/Olympus"},
		"non numeric port":          {"PORT": "http"},
		"bad log level":             {"LOG_LEVEL": "verbose"},
		"archive without project":   {"ARCHIVE_BUCKET": "seeding-archive"},
		"zero sql connections":      {"SQL_MAX_OPEN_CONNS": "0"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Postgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATASTORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://seeding@localhost:5432/seeding")
	t.Setenv("PROGRESS_CACHE_TTL", "2m")
	t.Setenv("DEFAULT_TIMEZONE", "Asia/Jakarta")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SQL_MAX_OPEN_CONNS", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DataStorePostgres, cfg.DataStore)
	assert.Equal(t, 2*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 4, cfg.SQL.MaxOpenConns)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}
