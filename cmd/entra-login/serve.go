package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/entra-login/internal/adapters/driven/auth"
	"github.com/custodia-labs/entra-login/internal/adapters/driven/entra"
	"github.com/custodia-labs/entra-login/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/entra-login/internal/adapters/driven/redis"
	"github.com/custodia-labs/entra-login/internal/adapters/driven/secrets"
	"github.com/custodia-labs/entra-login/internal/adapters/driving/http"
	"github.com/custodia-labs/entra-login/internal/config"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
	"github.com/custodia-labs/entra-login/internal/core/services"
	"github.com/custodia-labs/entra-login/internal/metrics"
	"github.com/custodia-labs/entra-login/internal/worker"
)

// sessionPurgeInterval is how often expired Postgres sessions are removed.
const sessionPurgeInterval = time.Hour

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sign-in HTTP server",
		Long: `Serve the callback endpoints, login entry points and the configuration
administration API. Configuration is read from the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := cfg.Logger()
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("entra-login starting", "version", version)

	// ===== PostgreSQL =====
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("postgres connected and schema applied")

	// ===== Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info("redis connected")
	}

	// ===== Metrics =====
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// ===== Driven adapters =====
	box := secrets.NewBox(cfg.ServerSecret)
	configStore := postgres.NewConfigStore(db, box)
	accountStore := postgres.NewAccountStore(db)
	authAdapter := auth.NewAdapter(cfg.JWTSecret)
	states := auth.NewStateCodec(cfg.ServerSecret, auth.WithStateTTL(cfg.StateTTL))
	provider := entra.NewClient(entra.ClientConfig{
		AuthorityHost: cfg.AuthorityHost,
		GraphBaseURL:  cfg.GraphBaseURL,
		HTTPTimeout:   cfg.HTTPTimeout,
		Metrics:       m,
		Logger:        logger,
	})

	// Sessions and the provisioning lock live in Redis when available,
	// otherwise in PostgreSQL.
	var (
		sessionStore driven.SessionStore
		lock         driven.DistributedLock
		redisPinger  http.Pinger
	)
	if redisClient != nil {
		sessionStore = redisadapter.NewSessionStore(redisClient)
		redisLock := redisadapter.NewLock(redisClient)
		lock = redisLock
		redisPinger = redisLock
		logger.Info("using redis session store and lock")
	} else {
		pgSessions := postgres.NewSessionStore(db)
		sessionStore = pgSessions
		lock = postgres.NewLock(db)

		sweeper := worker.NewSweeper(worker.SweeperConfig{
			Purger:   pgSessions,
			Lock:     lock,
			Logger:   logger,
			Interval: sessionPurgeInterval,
		})
		sweeper.Start(ctx)
		defer sweeper.Stop()
		logger.Info("using postgres session store and lock")
	}

	// ===== Services =====
	// Absolute return URLs may target the public base URL besides the
	// configured redirect URI hosts.
	var allowedHosts []string
	if cfg.BaseURL != "" {
		allowedHosts = append(allowedHosts, cfg.BaseURL)
	}

	fallback := cfg.FallbackOAuthConfig()
	if fallback != nil {
		logger.Info("static fallback configuration loaded", "tenant_id", fallback.TenantID)
	}
	resolver := services.NewConfigResolver(configStore, fallback, logger)
	bridge := services.NewBridge(services.BridgeConfig{
		Accounts:     accountStore,
		Sessions:     sessionStore,
		Auth:         authAdapter,
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
		Logger:       logger,
	})

	svc := http.Services{
		Auth: services.NewAuthService(accountStore, sessionStore, authAdapter),
		Login: services.NewLoginService(services.LoginServiceConfig{
			Resolver: resolver,
			Configs:  configStore,
			States:   states,
			Provider: provider,
			Sessions: sessionStore,

			AllowedHosts: allowedHosts,
			Logger:       logger,
		}),
		Callback: services.NewCallbackService(services.CallbackServiceConfig{
			States:   states,
			Resolver: resolver,
			Provider: provider,
			Bridge:   bridge,
			Accounts: accountStore,
			Auth:     authAdapter,
			Lock:     lock,

			AllowedHosts: allowedHosts,
			Logger:       logger,
		}),
		Config: services.NewConfigService(configStore, logger),
	}

	// ===== HTTP =====
	server := http.NewServer(http.Config{
		Host:                       cfg.Host,
		Port:                       cfg.Port,
		Version:                    version,
		CallbackPathPrimary:        cfg.CallbackPathPrimary,
		CallbackPathAdministrative: cfg.CallbackPathAdministrative,
		CookieSecure:               cfg.CookieSecure,
		DB:                         db,
		Redis:                      redisPinger,
		Metrics:                    m,
		Gatherer:                   reg,
		Logger:                     logger,
	}, svc)

	return server.Start(ctx)
}
