package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mapsview/core-go/internal/db"
	"mapsview/core-go/internal/httpapi"
	"mapsview/core-go/internal/mapconfig"
	"mapsview/core-go/internal/mapview"
	"mapsview/core-go/internal/markers"
	"mapsview/core-go/internal/metrics"
	"mapsview/core-go/internal/records"
	"mapsview/core-go/internal/viewer"
)

func main() {
	// A missing .env is normal outside local development.
	envFileErr := godotenv.Load()

	addr := envOr("HTTP_ADDR", ":8081")
	logLevel := envOr("LOG_LEVEL", "info")
	databaseURL := envOr("DATABASE_URL", "")
	configFile := envOr("MAPVIEW_CONFIG_FILE", "")
	backend := strings.ToLower(envOr("RECORD_BACKEND", "postgres"))

	logger := httpapi.NewLogger(logLevel)
	if envFileErr != nil && !os.IsNotExist(envFileErr) {
		logger.Warn().Err(envFileErr).Msg("failed to load .env")
	}

	policy, err := markers.ParsePolicy(envOr("MAPVIEW_COORDINATE_POLICY", ""))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid MAPVIEW_COORDINATE_POLICY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *db.Pool
	if databaseURL != "" {
		p, err := db.Open(ctx, databaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		pool = p
	}

	configSource := openConfigSource(logger, configFile, pool)
	recordSource := openRecordSource(ctx, logger, backend, pool)

	m := metrics.New()
	resolver := mapconfig.NewResolver(logger, configSource)
	fetcher := records.NewFetcher(logger, recordSource, envIntOr(logger, "MAPVIEW_RECORD_LIMIT", records.DefaultLimit))
	pipeline := viewer.NewPipeline(logger, resolver, fetcher, policy, m)
	views := viewer.NewRegistry(logger, pipeline, viewer.Options{
		SessionTTL: envDurationOr(logger, "MAPVIEW_SESSION_TTL", 30*time.Minute),
		Map: mapview.Options{
			Tiles: mapview.TileLayer{
				URLTemplate: envOr("MAPVIEW_TILE_URL", mapview.DefaultTileURL),
				Attribution: envOr("MAPVIEW_TILE_ATTRIBUTION", mapview.DefaultAttribution),
			},
		},
	}, m)
	go views.Run(ctx)

	deps := httpapi.Deps{
		Pipeline: pipeline,
		Views:    views,
		Metrics:  m,
	}
	if configSource != nil {
		deps.Configurations = resolver
	}
	if recordSource != nil {
		deps.Records = fetcher
	}

	h := httpapi.NewHandler(logger, deps)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("records", backend).Str("policy", string(policy)).Msg("mapsview listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

// openConfigSource prefers the YAML file; otherwise configurations are read from Postgres.
func openConfigSource(logger zerolog.Logger, path string, pool *db.Pool) mapconfig.Source {
	if path != "" {
		src, err := mapconfig.LoadFile(path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", path).Msg("failed to load map configurations")
		}
		return src
	}
	if pool != nil {
		return mapconfig.NewPostgresSource(pool.Queries())
	}
	logger.Warn().Msg("no MAPVIEW_CONFIG_FILE or DATABASE_URL; map configurations unavailable")
	return nil
}

func openRecordSource(ctx context.Context, logger zerolog.Logger, backend string, pool *db.Pool) records.Source {
	switch backend {
	case "mongo", "mongodb":
		uri := envOr("MONGO_URI", "")
		if uri == "" {
			logger.Fatal().Msg("RECORD_BACKEND=mongo requires MONGO_URI")
		}
		src, err := records.OpenMongo(ctx, uri, envOr("MONGO_DATABASE", "mapsview"))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		go func() {
			<-ctx.Done()
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = src.Close(closeCtx)
		}()
		return src
	case "postgres", "":
		if pool == nil {
			logger.Warn().Msg("DATABASE_URL not set; record source unavailable")
			return nil
		}
		return records.NewPostgresSource(pool.Queries(), pool)
	default:
		logger.Fatal().Str("backend", backend).Msg("unknown RECORD_BACKEND")
		return nil
	}
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envIntOr(logger zerolog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid integer; using default")
		return fallback
	}
	return n
}

func envDurationOr(logger zerolog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid duration; using default")
		return fallback
	}
	return d
}
