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

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/campus-forum/internal/config"
	"github.com/jwalitptl/campus-forum/internal/email"
	"github.com/jwalitptl/campus-forum/internal/handler"
	accountHandler "github.com/jwalitptl/campus-forum/internal/handler/account"
	auditHandler "github.com/jwalitptl/campus-forum/internal/handler/audit"
	authHandler "github.com/jwalitptl/campus-forum/internal/handler/auth"
	"github.com/jwalitptl/campus-forum/internal/handler/health"
	invitationHandler "github.com/jwalitptl/campus-forum/internal/handler/invitation"
	messageHandler "github.com/jwalitptl/campus-forum/internal/handler/message"
	moderationHandler "github.com/jwalitptl/campus-forum/internal/handler/moderation"
	passwordHandler "github.com/jwalitptl/campus-forum/internal/handler/password"
	postHandler "github.com/jwalitptl/campus-forum/internal/handler/post"
	userHandler "github.com/jwalitptl/campus-forum/internal/handler/user"
	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository/postgres"
	redisrepo "github.com/jwalitptl/campus-forum/internal/repository/redis"
	"github.com/jwalitptl/campus-forum/internal/router"
	accountService "github.com/jwalitptl/campus-forum/internal/service/account"
	auditService "github.com/jwalitptl/campus-forum/internal/service/audit"
	authService "github.com/jwalitptl/campus-forum/internal/service/auth"
	eventService "github.com/jwalitptl/campus-forum/internal/service/event"
	invitationService "github.com/jwalitptl/campus-forum/internal/service/invitation"
	messageService "github.com/jwalitptl/campus-forum/internal/service/message"
	moderationService "github.com/jwalitptl/campus-forum/internal/service/moderation"
	passwordService "github.com/jwalitptl/campus-forum/internal/service/password"
	postService "github.com/jwalitptl/campus-forum/internal/service/post"
	userService "github.com/jwalitptl/campus-forum/internal/service/user"
	"github.com/jwalitptl/campus-forum/pkg/auth"
	"github.com/jwalitptl/campus-forum/pkg/logger"
	redisbroker "github.com/jwalitptl/campus-forum/pkg/messaging/redis"
	"github.com/jwalitptl/campus-forum/pkg/metrics"
	"github.com/jwalitptl/campus-forum/pkg/security"
	"github.com/jwalitptl/campus-forum/pkg/validator"
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
	gin.SetMode(gin.ReleaseMode)

	if err := validator.RegisterWithGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

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
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(cfg.Server.MetricsPrefix)
	if err := appMetrics.Register(registry); err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	// Repositories
	base := postgres.NewBaseRepository(db)
	tx := postgres.NewTransactor(base)
	userRepo := postgres.NewUserRepository(base)
	tokenRepo := postgres.NewTokenRepository(base)
	invitationRepo := postgres.NewInvitationRepository(base)
	postRepo := postgres.NewPostRepository(base)
	replyRepo := postgres.NewReplyRepository(base)
	messageRepo := postgres.NewMessageRepository(base)
	moderationRepo := postgres.NewModerationRepository(base)
	auditRepo := postgres.NewAuditRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)
	revocations := redisrepo.NewRevocationStore(redisClient)

	// Services
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	emailSvc := email.New(cfg.SMTP, log.Logger)
	auditSvc := auditService.NewService(auditRepo, log.Logger)
	eventSvc := eventService.NewService(eventService.NewOutboxPublisher(outboxRepo), appMetrics)
	passwordSvc := passwordService.NewService(appMetrics)
	moderationSvc := moderationService.NewService(moderationRepo, auditSvc)
	invitationSvc := invitationService.NewService(invitationRepo, emailSvc, auditSvc, appMetrics, invitationService.Config{
		DefaultTTL: cfg.Invitation.TTL,
		CacheTTL:   cfg.Invitation.CacheTTL,
	})
	authSvc := authService.NewService(
		userRepo,
		tokenRepo,
		revocations,
		auth.NewJWTService(cfg.JWT.ToAuthConfig()),
		hasher,
		passwordSvc,
		emailSvc,
		auditSvc,
		appMetrics,
		authService.Config{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockoutDuration:  cfg.Auth.LockoutDuration,
			ResetTokenTTL:    cfg.Auth.ResetTokenTTL,
		},
	)
	accountSvc := accountService.NewService(userRepo, tx, invitationSvc, hasher, passwordSvc, eventSvc, auditSvc)
	userSvc := userService.NewService(userRepo, hasher, passwordSvc, auditSvc)
	postSvc := postService.NewService(postRepo, replyRepo, moderationSvc, auditSvc)
	messageSvc := messageService.NewService(messageRepo, userRepo, tx, moderationSvc, eventSvc, appMetrics)

	if err := bootstrapAdmin(ctx, userSvc, cfg.Bootstrap); err != nil {
		log.Fatal().Err(err).Msg("failed to create bootstrap admin")
	}

	handlers := []handler.Handler{
		health.NewHandler(map[string]health.Check{
			"database": pingDB(db),
			"redis":    pingRedis(redisClient),
		}, registry),
		passwordHandler.NewHandler(passwordSvc),
		authHandler.NewHandler(authSvc, middleware.NewLoginLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.ClientTTL)),
		accountHandler.NewHandler(accountSvc),
		userHandler.NewHandler(userSvc),
		invitationHandler.NewHandler(invitationSvc),
		postHandler.NewHandler(postSvc),
		messageHandler.NewHandler(messageSvc),
		moderationHandler.NewHandler(moderationSvc),
		auditHandler.NewHandler(auditSvc),
	}

	r, err := router.NewRouter(middleware.NewAuthMiddleware(authSvc), router.RouterConfig{
		RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:      cfg.RateLimit.Burst,
		ClientTTL:      cfg.RateLimit.ClientTTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsPrefix:  cfg.Server.MetricsPrefix,
		Registerer:     registry,
	}, handlers...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func bootstrapAdmin(ctx context.Context, users *userService.Service, cfg config.BootstrapConfig) error {
	if cfg.Username == "" {
		return nil
	}
	created, err := users.EnsureAdmin(ctx, &model.CreateUserRequest{
		Username: cfg.Username,
		Email:    cfg.Email,
		Name:     cfg.Name,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("username", cfg.Username).Msg("bootstrap admin created")
	}
	return nil
}

func pingDB(db *sqlx.DB) health.Check {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func pingRedis(client *goredis.Client) health.Check {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
