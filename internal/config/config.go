package config

import (
	"fmt"
	"strings"
	"time"

	sharedauth "github.com/focusnest/seeding-service/pkg/auth"
	"github.com/focusnest/seeding-service/pkg/envconfig"
)

// Config encapsulates the runtime configuration for the seeding service.
type Config struct {
	Port         string `validate:"required,numeric"`
	GCPProjectID string
	LogLevel     string `validate:"omitempty,oneof=debug info warn warning error"`
	// DefaultTimezone cuts calendar days for users whose journey has no timezone.
	DefaultTimezone string `validate:"required"`
	DataStore       DataStore
	MetricsEnabled  bool
	Auth            AuthConfig
	Firestore       FirestoreConfig
	SQL             SQLConfig
	Redis           RedisConfig
	Archive         ArchiveConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps everything in-process (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores records in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
	// DataStoreSQLite stores records in a local SQLite file.
	DataStoreSQLite DataStore = "sqlite"
	// DataStorePostgres stores records in PostgreSQL.
	DataStorePostgres DataStore = "postgres"
)

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     sharedauth.Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	EmulatorHost string
	DatabaseID   string
}

// SQLConfig configures the GORM-backed stores. DSN is a file path for
// sqlite and a connection string for postgres.
type SQLConfig struct {
	DSN          string
	MaxOpenConns int `validate:"gte=1"`
}

// RedisConfig enables the progress cache when URL is set.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// ArchiveConfig enables archiving user data to Cloud Storage before a reset.
type ArchiveConfig struct {
	Bucket string
}

// Location returns the parsed default timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.DefaultTimezone)
}

// Load reads .env files and environment variables into Config with validation.
func Load() (Config, error) {
	if err := envconfig.LoadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:            envconfig.Get("PORT", "8080"),
		GCPProjectID:    envconfig.Get("GCP_PROJECT_ID", ""),
		LogLevel:        strings.ToLower(envconfig.Get("LOG_LEVEL", "info")),
		DefaultTimezone: envconfig.Get("DEFAULT_TIMEZONE", "UTC"),
		DataStore:       DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		MetricsEnabled:  envconfig.GetBool("METRICS_ENABLED", true),
		Auth: AuthConfig{
			Mode:     sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
			DatabaseID:   envconfig.Get("FIRESTORE_DATABASE_ID", ""),
		},
		SQL: SQLConfig{
			DSN:          envconfig.Get("DATABASE_URL", ""),
			MaxOpenConns: envconfig.GetInt("SQL_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			URL: envconfig.Get("REDIS_URL", ""),
			TTL: envconfig.GetDuration("PROGRESS_CACHE_TTL", 15*time.Minute),
		},
		Archive: ArchiveConfig{
			Bucket: envconfig.Get("ARCHIVE_BUCKET", ""),
		},
	}
	if cfg.DataStore == DataStoreSQLite && cfg.SQL.DSN == "" {
		cfg.SQL.DSN = "seeding.db"
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE %q is not a valid IANA zone", cfg.DefaultTimezone)
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	case DataStoreSQLite, DataStorePostgres:
		if strings.TrimSpace(cfg.SQL.DSN) == "" {
			return fmt.Errorf("DATABASE_URL is required when datastore=%s", cfg.DataStore)
		}
	default:
		return fmt.Errorf("unsupported datastore: %s", cfg.DataStore)
	}

	if cfg.Archive.Bucket != "" && cfg.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required when ARCHIVE_BUCKET is set")
	}

	switch cfg.Auth.Mode {
	case sharedauth.ModeClerk:
		if cfg.Auth.JWKSURL == "" {
			return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
		}
	case sharedauth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	return nil
}
