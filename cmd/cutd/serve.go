package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/api"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/billing"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/catalog"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/config"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/events"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/logging"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/media"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), e)
		},
	}
}

func serve(parent context.Context, e *env) error {
	startTime := time.Now()
	cfg := e.cfg
	logger := logging.NewLogger(cfg.LogLevel())
	e.logger = logger
	logger.Info("starting cutd", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := e.openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	catalogRepo := catalog.NewRepository(database.Conn(), database.Dialect())
	catalogSvc := catalog.NewService(catalogRepo, logging.WithComponent(logger, "catalog"))

	transcripts := transcript.Chain{transcript.NewCatalogSource(catalogRepo)}
	if hosts := cfg.CassandraHosts(); len(hosts) > 0 {
		session, err := transcript.ConnectCassandra(hosts, cfg.CassandraKeyspace())
		if err != nil {
			logger.Warn("cassandra transcript store unavailable", "hosts", hosts, "error", err)
		} else {
			src := transcript.NewCassandraSource(session)
			defer src.Close()
			transcripts = append(transcripts, src)
			logger.Info("cassandra transcript store enabled", "keyspace", cfg.CassandraKeyspace())
		}
	}

	hub := events.NewHub(cfg.AllowedOrigins(), logging.WithComponent(logger, "events"))
	publishers := events.Multi{hub}
	if addr := cfg.RedisAddr(); addr != "" {
		rp, err := events.ConnectRedis(ctx, addr, cfg.RedisChannel())
		if err != nil {
			logger.Warn("redis publisher unavailable", "addr", addr, "error", err)
		} else {
			defer rp.Close()
			publishers = append(publishers, rp)
			logger.Info("publishing cut events to redis", "channel", cfg.RedisChannel())
		}
	}
	if broker := cfg.MQTTBroker(); broker != "" {
		mp := events.NewMQTTPublisher(broker, cfg.MQTTTopic(), logging.WithComponent(logger, "mqtt"))
		if err := mp.Start(ctx); err != nil {
			logger.Warn("mqtt publisher unavailable", "broker", broker, "error", err)
		} else {
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer stopCancel()
				mp.Stop(stopCtx)
			}()
			publishers = append(publishers, mp)
		}
	}

	cutSvc := cuts.NewService(
		cuts.NewRepository(database.Conn(), database.Dialect()),
		publishers,
		logging.WithComponent(logger, "cuts"),
	)

	detector, err := newDetector(cfg, logger)
	if err != nil {
		logger.Warn("cut detection disabled", "error", err)
	}

	var credits billing.Gate = billing.Unmetered{}
	if cfg.AnalysisCost() > 0 {
		credits = billing.NewSQLGate(database.Conn(), database.Dialect(), cfg.AnalysisCost())
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		AllowedOrigins: cfg.AllowedOrigins(),
		Catalog:        catalogSvc,
		Cuts:           cutSvc,
		Detector:       detector,
		Transcripts:    transcripts,
		Credits:        credits,
		Hub:            hub,
		Media:          media.NewStreamer(logging.WithComponent(logger, "media")),
		DB:             database,
		Logger:         logging.WithComponent(logger, "api"),
		StartTime:      startTime,
		Version:        config.Version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
