// Package bootstrap prepares process-wide dependencies for the cmd binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"goyfeed/internal/cache"
	"goyfeed/internal/config"
	"goyfeed/internal/database"
	"goyfeed/internal/middleware"
	"goyfeed/internal/models"
	"goyfeed/internal/observability"
	"goyfeed/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ServiceName identifies the service in traces and metrics.
const ServiceName = "goyfeed-api"

// Version is set at build time with -ldflags.
var Version = "dev"

// Options control runtime initialization behavior.
type Options struct {
	// SeedIfEmpty populates a demo graph when the users table is empty.
	// It is ignored in production.
	SeedIfEmpty bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := requireSchema(db); err != nil {
		return nil, nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedIfEmpty && !cfg.IsProduction() {
		if err := seedIfEmpty(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// requireSchema refuses to serve from a database that cmd/migrate has not
// brought up to date. Outside production Connect has already migrated.
func requireSchema(db *gorm.DB) error {
	status, err := database.GetSchemaStatus(db)
	if err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}
	if status.Pending() {
		return fmt.Errorf("database schema is not migrated (tables %v, indexes %v, constraints %v); run cmd/migrate up",
			status.MissingTables, status.MissingIndexes, status.MissingConstraints)
	}
	return nil
}

func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	middleware.Logger.InfoContext(ctx, "empty database, seeding demo graph")
	_, err := seed.NewSeeder(db, seed.DefaultOptions()).SeedSocialGraph(ctx)
	return err
}

// InitTracing installs the tracer provider described by cfg.
func InitTracing(cfg *config.Config) (func(context.Context) error, error) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, err
	}
	if cfg.TracingEnabled {
		middleware.Logger.Info("Tracing enabled",
			slog.String("exporter", cfg.TracingExporter),
			slog.Float64("sample_ratio", cfg.TracingSampleRatio),
		)
	}
	return shutdown, nil
}
