// Package main is the entry point for the Study Hub API server.
//
// Startup order: configuration, logging, PostgreSQL (with migrations),
// optional Redis snapshot cache, event bus, external clients, application
// handlers, maintenance scheduler, HTTP server. Shutdown reverses it on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/language-study/study-hub/config"
	"github.com/language-study/study-hub/internal/application/command"
	"github.com/language-study/study-hub/internal/application/eventhandler"
	"github.com/language-study/study-hub/internal/application/query"
	"github.com/language-study/study-hub/internal/domain/badge"
	"github.com/language-study/study-hub/internal/domain/mentor"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/internal/domain/usage"
	"github.com/language-study/study-hub/internal/infrastructure/auth"
	"github.com/language-study/study-hub/internal/infrastructure/export"
	"github.com/language-study/study-hub/internal/infrastructure/external/tips"
	"github.com/language-study/study-hub/internal/infrastructure/messaging"
	"github.com/language-study/study-hub/internal/infrastructure/persistence/postgres"
	"github.com/language-study/study-hub/internal/infrastructure/persistence/redis"
	"github.com/language-study/study-hub/internal/infrastructure/scheduler"
	httpserver "github.com/language-study/study-hub/internal/interface/http"
	"github.com/language-study/study-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.Observability.LogLevel))
	log.Info("starting study hub server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.URL == "" {
		return fmt.Errorf("no database configured: set DATABASE_URL or DB_HOST/DB_USER")
	}

	log.Info("connecting to database...")
	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		conn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional snapshot cache)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache         *redis.Cache
		snapshotCache progress.SnapshotCache
	)
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err = redis.NewCache(ctx, redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, snapshot caching disabled", logger.Err(err))
			cache = nil
		} else {
			defer cache.Close()
			snapshotCache = redis.NewSnapshotCache(cache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	vocabRepo := postgres.NewVocabularyRepo(conn)
	skillRepo := postgres.NewSkillRepo(conn)
	portfolioRepo := postgres.NewPortfolioRepo(conn)
	settingsRepo := postgres.NewSettingsRepo(conn)
	mentorRepo := postgres.NewMentorRepo(conn)
	usageRepo := postgres.NewUsageRepo(conn)
	userRepo := postgres.NewUserRepo(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewBus(0, log)
	defer func() {
		log.Info("closing event bus...")
		bus.Close()
	}()

	bus.Subscribe(shared.EventNameBadgeEarned, eventhandler.NewBadgeEarnedLogger(log))
	bus.Subscribe(shared.EventNameUsageQuotaExceeded, eventhandler.NewQuotaExceededLogger(log))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. DOMAIN SERVICES AND EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	authProvider := auth.NewProvider(userRepo,
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
		auth.WithActionCodeTTL(cfg.Auth.ActionCodeTTL),
		auth.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	badgeEngine := badge.NewEngine()
	mentorService := mentor.NewService(mentorRepo, bus)
	limiter := usage.NewLimiter(usageRepo, cfg.App.Location,
		cfg.Usage.UserDailyLimit, cfg.Usage.GlobalDailyLimit, bus)

	var premium command.TipGenerator
	if cfg.Tips.APIKey != "" && cfg.Features.IsEnabled(config.FeaturePremiumTips, "") {
		tipsCfg := tips.DefaultConfig()
		tipsCfg.APIKey = cfg.Tips.APIKey
		tipsCfg.APIURL = cfg.Tips.APIURL
		tipsCfg.Model = cfg.Tips.Model
		tipsCfg.MaxTokens = cfg.Tips.MaxTokens
		tipsCfg.Temperature = cfg.Tips.Temperature
		tipsCfg.Timeout = cfg.Tips.Timeout

		client, err := tips.NewClient(tipsCfg, log)
		if err != nil {
			return fmt.Errorf("failed to create tips client: %w", err)
		}
		premium = client
		log.Info("premium tip generation enabled", logger.String("model", tipsCfg.Model))
	} else {
		log.Info("premium tip generation disabled, using fallback tips only")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpserver.Dependencies{
		Auth: authProvider,

		AddVocabulary: command.NewAddVocabularyHandler(vocabRepo, settingsRepo, snapshotCache),
		AddSkills:     command.NewAddSkillsHandler(skillRepo, snapshotCache),
		UpdateStatus:  command.NewUpdateStatusHandler(vocabRepo, skillRepo, snapshotCache),
		DeleteItem:    command.NewDeleteItemHandler(vocabRepo, skillRepo, portfolioRepo, snapshotCache),
		Categories:    command.NewCategoryHandler(settingsRepo, vocabRepo, snapshotCache),
		Subtasks:      command.NewSubtaskHandler(skillRepo, snapshotCache),
		Portfolio:     command.NewPortfolioHandler(portfolioRepo, snapshotCache),
		Settings:      command.NewSettingsHandler(settingsRepo, snapshotCache),
		MentorSharing: command.NewMentorSharingHandler(mentorService),
		RequestTip:    command.NewRequestTipHandler(limiter, premium, tips.NewFallback()),
		DeleteAccount: command.NewDeleteAccountHandler(
			vocabRepo, skillRepo, portfolioRepo, settingsRepo,
			mentorRepo, snapshotCache, authProvider, bus),

		GetSnapshot: query.NewGetSnapshotHandler(
			vocabRepo, skillRepo, portfolioRepo, settingsRepo, settingsRepo,
			snapshotCache, badgeEngine, bus, log),
		ResolveMentorView: query.NewResolveMentorViewHandler(mentorService, settingsRepo),
		GetUsage:          query.NewGetUsageHandler(limiter),

		Exporter: export.NewExcelExporter(),
		Logger:   log,
		ReadyCheck: func(ctx context.Context) error {
			if err := conn.Ping(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if cache != nil {
				if err := cache.Ping(ctx); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. MAINTENANCE SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(scheduler.Config{
			Location:      cfg.App.Location,
			RunAt:         cfg.Scheduler.RunAt,
			RetentionDays: cfg.Scheduler.RetentionDays,
		}, usageRepo, userRepo, log)
		sched.Start()
		defer func() {
			log.Info("stopping scheduler...")
			sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.SessionCookie = cfg.HTTP.SessionCookie
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	server := httpserver.NewServer(serverCfg, deps)
	errCh := server.StartAsync()

	log.Info("server started",
		logger.String("addr", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
