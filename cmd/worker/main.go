package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/campus-forum/internal/config"
	"github.com/jwalitptl/campus-forum/internal/email"
	"github.com/jwalitptl/campus-forum/internal/repository/postgres"
	auditService "github.com/jwalitptl/campus-forum/internal/service/audit"
	invitationService "github.com/jwalitptl/campus-forum/internal/service/invitation"
	"github.com/jwalitptl/campus-forum/internal/worker"
	"github.com/jwalitptl/campus-forum/pkg/logger"
	"github.com/jwalitptl/campus-forum/pkg/messaging"
	redisbroker "github.com/jwalitptl/campus-forum/pkg/messaging/redis"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})
	appLogger.SetGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redisbroker.NewClient(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	broker := messaging.NewBrokerAdapter(redisbroker.NewRedisBroker(redisClient, log.Logger))
	defer broker.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workerMetrics := metrics.New(cfg.Server.MetricsPrefix)
	if err := workerMetrics.Register(registry); err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	emailSvc := email.New(cfg.SMTP, log.Logger)
	auditSvc := auditService.NewService(postgres.NewAuditRepository(base), log.Logger)
	invitationSvc := invitationService.NewService(postgres.NewInvitationRepository(base), emailSvc, auditSvc, workerMetrics, invitationService.Config{
		DefaultTTL: cfg.Invitation.TTL,
		CacheTTL:   cfg.Invitation.CacheTTL,
	})

	notifications := worker.NewNotificationWorker(broker, emailSvc, workerMetrics, appLogger)
	if err := notifications.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start notification worker")
	}

	relay, err := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		Lease:        cfg.Outbox.Lease,
	}, appLogger, workerMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid outbox configuration")
	}
	go relay.Start(ctx)

	cleanup := worker.NewCleanupWorker(cfg.Worker.CleanupInterval, appLogger,
		worker.CleanupTask{Name: "expired_invitations", Run: invitationSvc.PurgeExpired},
		worker.RetentionTask("audit_logs", cfg.Worker.AuditRetention, auditSvc.Cleanup),
		worker.RetentionTask("outbox_events", cfg.Outbox.Retention, outboxRepo.DeleteProcessedBefore),
	)
	go cleanup.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
		Handler: metricsMux(registry),
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("worker metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server forced to shutdown")
	}
}

func metricsMux(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
