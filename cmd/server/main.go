package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/focusnest/seeding-service/internal/archive"
	"github.com/focusnest/seeding-service/internal/badge"
	"github.com/focusnest/seeding-service/internal/cache"
	"github.com/focusnest/seeding-service/internal/config"
	"github.com/focusnest/seeding-service/internal/httpapi"
	"github.com/focusnest/seeding-service/internal/journal"
	"github.com/focusnest/seeding-service/internal/metrics"
	sharedauth "github.com/focusnest/seeding-service/pkg/auth"
	"github.com/focusnest/seeding-service/pkg/logging"
	sharedserver "github.com/focusnest/seeding-service/pkg/server"
)

const serviceName = "seeding-service"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName, cfg.LogLevel)

	repo, cleanup, err := newRepository(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	loc, err := cfg.Location()
	if err != nil {
		panic(fmt.Errorf("timezone error: %w", err))
	}

	opts := []journal.Option{
		journal.WithLogger(logger),
		journal.WithDefaultLocation(loc),
	}
	var routerOpts []sharedserver.Option
	if cfg.MetricsEnabled {
		m := metrics.New()
		opts = append(opts, journal.WithRecorder(m))
		routerOpts = append(routerOpts,
			sharedserver.WithMiddleware(m.Middleware),
			sharedserver.WithHandler("/metrics", m.Handler()),
		)
	}

	if cfg.Redis.URL != "" {
		progressCache, err := cache.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			panic(fmt.Errorf("redis init error: %w", err))
		}
		defer progressCache.Close()
		opts = append(opts, journal.WithProgressCache(progressCache))
		logger.Info("progress cache enabled", slog.Duration("ttl", cfg.Redis.TTL))
	}

	if cfg.Archive.Bucket != "" {
		archiver, err := archive.NewGCS(ctx, cfg.Archive.Bucket)
		if err != nil {
			panic(fmt.Errorf("archive init error: %w", err))
		}
		defer archiver.Close()
		opts = append(opts, journal.WithArchiver(archiver))
		logger.Info("reset archiving enabled", slog.String("bucket", cfg.Archive.Bucket))
	}

	evaluator := badge.NewEvaluator(badge.WithLocation(loc))
	journalService, err := journal.NewService(repo, journal.NewSystemClock(), journal.NewUUIDGenerator(), evaluator, opts...)
	if err != nil {
		panic(fmt.Errorf("journal service init error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter(serviceName, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))

			httpapi.RegisterRoutes(r, journalService, logger)
		})
	}, routerOpts...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepository(ctx context.Context, cfg config.Config) (journal.Repository, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return nil, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		var (
			client *firestore.Client
			err    error
		)
		if cfg.Firestore.DatabaseID != "" {
			client, err = firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, cfg.Firestore.DatabaseID)
		} else {
			client, err = firestore.NewClient(ctx, cfg.GCPProjectID)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}

		repo := journal.NewFirestoreRepository(client)
		cleanup := func() {
			_ = client.Close()
		}
		return repo, cleanup, nil
	case config.DataStoreSQLite, config.DataStorePostgres:
		dialector := sqlite.Open(cfg.SQL.DSN)
		if cfg.DataStore == config.DataStorePostgres {
			dialector = postgres.Open(cfg.SQL.DSN)
		}

		db, err := gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.DataStore, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.SQL.MaxOpenConns)

		repo, err := journal.NewGormRepository(ctx, db)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate %s: %w", cfg.DataStore, err)
		}
		return repo, func() { _ = sqlDB.Close() }, nil
	default:
		repo := journal.NewMemoryRepository()
		return repo, func() {}, nil
	}
}
