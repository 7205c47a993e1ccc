package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"loan-default-dashboard/internal/adapters/events/kafka"
	pg "loan-default-dashboard/internal/adapters/storage/postgres"
	"loan-default-dashboard/internal/config"
	"loan-default-dashboard/internal/domain/diagnostics"
	"loan-default-dashboard/internal/platform/logger"
	"loan-default-dashboard/internal/router"
)

// @title        Loan Default Dashboard API
// @version      1.0
// @description  Gráficos del dashboard de inadimplencia y diagnósticos de Score Collection.
// @BasePath     /
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// El .env es opcional; en contenedores las variables vienen del entorno.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, closeSinks := openSinks(ctx, cfg, log)
	defer closeSinks()

	h, err := router.NewRouter(router.Options{
		Config: cfg,
		Logger: log,
		Sinks:  sinks,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{
			"addr":             srv.Addr,
			"diagnostics_file": cfg.Storage.DiagnosticsFile,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openSinks abre los espejos opcionales. Un espejo que no conecta se omite con un warning.
func openSinks(ctx context.Context, cfg *config.Config, log logger.Logger) ([]diagnostics.Sink, func()) {
	var (
		sinks   []diagnostics.Sink
		closers []func()
	)

	if dsn := cfg.Storage.DatabaseDSN; dsn != "" {
		db, err := pg.Open(ctx, dsn)
		if err != nil {
			log.Warn("postgres mirror disabled", map[string]any{"error": err})
		} else {
			repo := pg.NewDiagnosticsRepo(db)
			schemaCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := repo.EnsureSchema(schemaCtx)
			cancel()
			if err != nil {
				log.Warn("postgres mirror disabled", map[string]any{"error": err})
				_ = db.Close()
			} else {
				sinks = append(sinks, repo)
				closers = append(closers, func() { _ = db.Close() })
			}
		}
	}

	if cfg.Kafka.Enabled() {
		pub, err := kafka.NewPublisher(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			log.Warn("kafka mirror disabled", map[string]any{"error": err})
		} else {
			sinks = append(sinks, pub)
			closers = append(closers, func() { _ = pub.Close() })
		}
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}
