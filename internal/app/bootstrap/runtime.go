package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/prontocasa/assistant/internal/assistant"
	appconfig "github.com/prontocasa/assistant/internal/config"
	"github.com/prontocasa/assistant/internal/geo"
	"github.com/prontocasa/assistant/internal/leads"
	"github.com/prontocasa/assistant/internal/pricing"
	"github.com/prontocasa/assistant/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildHistoryStore picks the session store: Redis when configured and
// reachable, process memory otherwise. Memory is fine for a single dev
// instance; it loses sessions on restart.
func BuildHistoryStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) assistant.HistoryStore {
	if cfg != nil && !cfg.UseMemoryHistory {
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			return assistant.NewRedisHistoryStore(client, otel.Tracer("prontocasa.internal.assistant.history"))
		}
	}
	if logger != nil {
		logger.Info("using in-memory history store")
	}
	return assistant.NewMemoryHistoryStore()
}

// BuildLeadRepository wires the confirmed-lead sink: Postgres when a database
// URL is configured, process memory otherwise. The returned closer is a no-op
// for the memory variant.
func BuildLeadRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (leads.Repository, func()) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return leads.NewInMemoryRepository(), func() {}
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		if logger != nil {
			logger.Warn("database not available, using in-memory lead repository", "error", err)
		}
		return leads.NewInMemoryRepository(), func() {}
	}
	return leads.NewPostgresRepository(pool), pool.Close
}

// LoadTariffTable reads the tariff configuration. A missing or malformed
// file degrades pricing to "no price available" rather than failing startup.
func LoadTariffTable(cfg *appconfig.Config, logger *logging.Logger) pricing.Table {
	if cfg == nil || cfg.TariffPath == "" {
		return nil
	}
	table, err := pricing.LoadTable(cfg.TariffPath)
	if err != nil {
		if logger != nil {
			logger.Warn("tariff table unavailable, price quotes disabled", "path", cfg.TariffPath, "error", err)
		}
		return nil
	}
	return table
}

// LoadGazetteer reads the known-areas list. A missing file yields an empty
// matcher; zone matching then passes free text through unchanged.
func LoadGazetteer(cfg *appconfig.Config, logger *logging.Logger) *geo.Matcher {
	if cfg == nil || cfg.GazetteerPath == "" {
		return geo.NewMatcher(nil)
	}
	areas, err := geo.LoadAreas(cfg.GazetteerPath)
	if err != nil {
		if logger != nil {
			logger.Warn("gazetteer unavailable, zone matching disabled", "path", cfg.GazetteerPath, "error", err)
		}
		return geo.NewMatcher(nil)
	}
	return geo.NewMatcher(areas)
}
