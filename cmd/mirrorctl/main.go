// Command mirrorctl loads a declared schema, opens a MySQL/TiDB connection,
// and initializes (or verifies) the mirror's relational layout.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"graphmirror"
	"graphmirror/internal/config"
	"graphmirror/internal/logging"
	"graphmirror/internal/mirrormetrics"
	"graphmirror/internal/observability"
	"graphmirror/internal/schemafile"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

// cleanupStack runs shutdown functions in LIFO order.
type cleanupStack struct {
	items []cleanupItem
}

type cleanupItem struct {
	name string
	fn   func(context.Context) error
}

func (s *cleanupStack) push(name string, fn func(context.Context) error) {
	s.items = append(s.items, cleanupItem{name: name, fn: fn})
}

func (s *cleanupStack) run(ctx context.Context, logger *logging.Logger) {
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		logger.Info("shutting down " + item.name)
		if err := item.fn(ctx); err != nil {
			logger.Warn("cleanup error", slog.String("component", item.name), slog.String("error", err.Error()))
		}
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("mirrorctl error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	pflag.Bool("version", false, "Print version and exit")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if showVersion, _ := pflag.CommandLine.GetBool("version"); showVersion {
		fmt.Printf("mirrorctl %s\n", Version)
		return nil
	}
	if cfg.SchemaFile == "" {
		return fmt.Errorf("schema_file is required")
	}

	logger := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	var cleanup cleanupStack
	defer cleanup.run(context.Background(), logger)

	var metrics *mirrormetrics.Metrics
	if cfg.Observability.Enabled {
		tp, err := observability.InitTracerProvider(observability.Config{
			ServiceName:      cfg.Observability.ServiceName,
			ServiceVersion:   Version,
			Environment:      cfg.Observability.Environment,
			TraceSampleRatio: cfg.Observability.TraceSampleRatio,
			OTLPConfig: observability.OTLPExporterConfig{
				Endpoint: cfg.Observability.OTLPEndpoint,
				Insecure: cfg.Observability.OTLPInsecure,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		cleanup.push("tracer provider", func(ctx context.Context) error { return tp.Shutdown(ctx, logger.Logger) })

		mp, err := observability.InitMeterProvider(observability.Config{
			ServiceName: cfg.Observability.ServiceName,
			Environment: cfg.Observability.Environment,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		cleanup.push("meter provider", func(ctx context.Context) error { return mp.Shutdown(ctx, logger.Logger) })

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(mp.Exporter(), promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.Observability.MetricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server stopped", slog.String("error", err.Error()))
			}
		}()
		cleanup.push("metrics server", func(ctx context.Context) error { return server.Shutdown(ctx) })

		metrics, err = mirrormetrics.Init()
		if err != nil {
			return fmt.Errorf("failed to initialize mirror metrics: %w", err)
		}
	}

	schema, err := schemafile.Load(cfg.SchemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	db, err := connectDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup.push("database connection", func(context.Context) error { return db.Close() })

	opts := []mirror.Option{mirror.WithLogger(logger.Logger)}
	if metrics != nil {
		opts = append(opts, mirror.WithMetrics(metrics))
	}

	m, err := mirror.Open(context.Background(), db, schema, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize mirror layout: %w", err)
	}
	defer m.Close()

	logger.Info("mirror layout ready",
		slog.Int("object_types", len(m.SchemaInfo().ObjectTypes)),
		slog.Int("union_types", len(m.SchemaInfo().UnionTypes)),
	)
	return nil
}

func connectDB(cfg *config.Config, logger *logging.Logger) (*sql.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sql.DB
	var err error
	if cfg.Observability.Enabled {
		db, err = otelsql.Open("mysql", dsn, otelsql.WithAttributes(semconv.DBSystemMySQL))
		if err != nil {
			return nil, err
		}
		if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemMySQL)); err != nil {
			logger.Warn("failed to register DB stats metrics", slog.String("error", err.Error()))
		}
	} else {
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
	}

	db.SetMaxOpenConns(cfg.Database.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Database.Pool.MaxIdle)
	db.SetConnMaxLifetime(cfg.Database.Pool.MaxLifetime)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return db, nil
}
