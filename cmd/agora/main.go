package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/agora-social/agora/internal/app"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/authz"
	"github.com/agora-social/agora/internal/business"
	"github.com/agora-social/agora/internal/communities"
	"github.com/agora-social/agora/internal/dispatch"
	"github.com/agora-social/agora/internal/moderation"
	"github.com/agora-social/agora/internal/observability"
	"github.com/agora-social/agora/internal/platform/cache"
	platformdb "github.com/agora-social/agora/internal/platform/db"
	"github.com/agora-social/agora/internal/polls"
	"github.com/agora-social/agora/internal/posts"
	"github.com/agora-social/agora/internal/shared"
	"github.com/agora-social/agora/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := platformdb.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, tally cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService)

	postsRepo := posts.NewRepository(pool)
	postsService := posts.NewService(postsRepo)

	communitiesRepo := communities.NewRepository(pool)
	communitiesService := communities.NewService(communitiesRepo)

	pollsRepo := polls.NewRepository(pool)
	tallyCache := polls.NewTallyCache(redisClient, cfg.PollTallyTTL)
	pollsService := polls.NewService(pollsRepo, communitiesRepo, tallyCache)

	businessRepo := business.NewRepository(pool)
	businessService := business.NewService(businessRepo)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	moderationRepo := moderation.NewRepository(pool)
	moderationService := moderation.NewService(moderationRepo, auditLogger, jobsClient, logger, cfg.ReportHideThreshold)

	authzRepo := authz.NewRepository(pool)
	resolver := authz.NewResolver(authzRepo, authzRepo)
	posts.RegisterOwners(resolver, postsRepo)
	communities.RegisterOwners(resolver, communitiesRepo)
	polls.RegisterOwners(resolver, pollsRepo)
	business.RegisterOwners(resolver, businessRepo)
	gateway := authz.NewGateway(authz.NewValidator(authzRepo), resolver, metrics)

	newDispatch := func(actions dispatch.ActionSet) *dispatch.Handler {
		return dispatch.NewHandler(logger, gateway, actions)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: authHandler,
		Posts:       newDispatch(posts.Actions(postsService, moderationService)),
		Communities: newDispatch(communities.Actions(communitiesService)),
		Polls:       newDispatch(polls.Actions(pollsService)),
		Business:    newDispatch(business.Actions(businessService)),
		Admin:       newDispatch(moderation.Actions(moderationService)),
		JobHandler:  jobHandler,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
