package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Soniya561/LAVAPUNK/internal/activity"
	"github.com/Soniya561/LAVAPUNK/internal/catalog"
	"github.com/Soniya561/LAVAPUNK/internal/db"
	"github.com/Soniya561/LAVAPUNK/internal/filtering"
	"github.com/Soniya561/LAVAPUNK/internal/logger"
	"github.com/Soniya561/LAVAPUNK/internal/profile"
	"github.com/Soniya561/LAVAPUNK/internal/secrets"
	"github.com/Soniya561/LAVAPUNK/internal/server"
	"github.com/Soniya561/LAVAPUNK/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the oppify API server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting oppify", zap.String("version", version))

	if config.Database.URL == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set DATABASE_URL or the database.url key in the configuration file"),
		)
	}
	if config.Redis.URL == "" {
		logger.Fatal("redis url is required",
			zap.String("hint", "set REDIS_URL or the redis.url key in the configuration file"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, config.Database.URL)
	if err != nil {
		logger.Fatal("connecting postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, config.Redis.URL)
	if err != nil {
		logger.Fatal("connecting redis", zap.Error(err))
	}
	defer rdb.Close()

	store := catalog.NewStore(pool)
	if err := store.Init(ctx); err != nil {
		logger.Fatal("initializing catalog schema", zap.Error(err))
	}

	cache := catalog.NewCache(rdb, config.Catalog.CacheTTL)
	svc := catalog.NewService(store, cache, logger)

	scheduler := catalog.NewScheduler(svc, config.Catalog.RefreshInterval, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("starting catalog scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	publisherToken := resolvePublisherToken(config)
	if publisherToken == "" {
		logger.Warn("publisher token not configured; the publish endpoint is disabled")
	}

	srv := server.New(
		&server.Config{
			Address:    config.Server.Address,
			TopMatches: config.Recommend.TopMatches,
			Filtering: &filtering.Config{
				TrustedSources: config.Filtering.TrustedSources,
				LegacySearch:   config.Filtering.LegacySearch,
			},
			SourceURLs:     config.Sources,
			PublisherToken: publisherToken,
		},
		logger,
		svc,
		profile.NewStore(rdb),
		session.NewManager(rdb, config.Session.TTL),
		activity.NewTracker(rdb),
	)

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal("api server failed", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown signal received"))
}

func resolvePublisherToken(config *Config) string {
	if config.Publisher.TokenFile == "" {
		return ""
	}
	token, err := secrets.Load(secrets.Source{
		Name: "publisher token",
		File: config.Publisher.TokenFile,
	})
	if err != nil {
		log.Fatalf("loading publisher token: %s", err)
	}
	return token
}
