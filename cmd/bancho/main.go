package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"banchogate/internal/account"
	"banchogate/internal/bancho/broadcast"
	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/dispatch"
	"banchogate/internal/bancho/httpserver"
	"banchogate/internal/bancho/login"
	"banchogate/internal/bancho/match"
	"banchogate/internal/bancho/session"
	"banchogate/internal/icons"
	"banchogate/internal/oui"
	"banchogate/pkg/config"
	"banchogate/pkg/database"
	"banchogate/pkg/kv"
	"banchogate/pkg/logging"
	"banchogate/pkg/metrics"
	"banchogate/pkg/pubsub"
)

var (
	version   string = "dev"
	buildTime string = "unknown"
	gitCommit string = "unknown"
)

// persistentChannels seeds the channel store with the rooms every
// client expects on login, ahead of anything configuration adds.
var persistentChannels = []channel.Config{
	{Name: "#osu", Description: "Global chat", PublicRead: true, PublicWrite: true},
	{Name: "#lobby", Description: "Multiplayer lobby chat", PublicRead: true, PublicWrite: true},
	{Name: "#announce", Description: "Announcements", PublicRead: true, PublicWrite: false},
}

func main() {
	var (
		configFile  = flag.String("config", "configs/bancho.yaml", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("banchogate\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Git Commit: %s\n", gitCommit)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger("bancho", logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ctx := context.Background()

	store, err := newKVStore(cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to construct key/value store", "error", err)
		os.Exit(1)
	}

	conn, err := database.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	accounts := account.NewSQLRepository(conn)
	stats := account.NewSQLStatsRepository(conn, store)
	verifier := account.NewBcryptVerifier()
	iconRepo := icons.NewSQLRepository(conn)

	sessions := session.NewStore(store, accounts)
	channels := channel.NewStore(store)
	matches := match.NewStore(store, sessions, channels)

	if err := channels.Initialise(ctx, persistentChannels); err != nil {
		logger.Error("failed to seed persistent channels", "error", err)
		os.Exit(1)
	}

	var ouiCache *oui.Cache
	if cfg.Oui.Enabled {
		ouiCache = oui.NewCache(nil)
	}

	metricsRegistry := metrics.NewRegistry("bancho", version, buildTime, gitCommit, logger)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metricsRegistry.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		logger.Info("metrics server starting", "port", cfg.Metrics.Port)
	}

	loginDeps := login.Dependencies{
		Accounts: accounts,
		Sessions: sessions,
		Channels: channels,
		Stats:    stats,
		Verifier: verifier,
		Icons:    iconRepo,
		Oui:      ouiCache,
		Logger:   logger,
	}

	dispatchDeps := &dispatch.Deps{
		Sessions: sessions,
		Channels: channels,
		Matches:  matches,
		Accounts: accounts,
		Stats:    stats,
		Metrics:  metricsRegistry.Bancho,
		Logger:   logger,
	}
	table := dispatch.NewTable(dispatchDeps)

	bus := pubsub.NewBus(store, logger)
	broadcast.Register(bus, broadcast.Deps{
		Sessions:          sessions,
		Accounts:          accounts,
		RestrictedMessage: cfg.Restriction.Message,
		Logger:            logger,
	})
	pubsubCtx, stopPubsub := context.WithCancel(context.Background())
	go bus.Run(pubsubCtx)
	logger.Info("pubsub bus subscribed", "channels", []string{broadcast.ChannelAnnounce, broadcast.ChannelRestrict})

	srv := httpserver.New(httpserver.Config{
		Address: cfg.Server.Host,
		Port:    cfg.Server.Port,
	}, loginDeps, dispatchDeps, table, sessions, logger)

	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.Error("bancho http server stopped", "error", err)
		}
	}()

	logger.Info("bancho started",
		"version", version,
		"address", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error stopping http server", "error", err)
	}

	stopPubsub()
	if err := bus.Stop(shutdownCtx); err != nil {
		logger.Error("error draining pubsub bus", "error", err)
	}

	if cfg.Metrics.Enabled {
		if err := metricsRegistry.StopMetricsServer(shutdownCtx); err != nil {
			logger.Error("error stopping metrics server", "error", err)
		}
	}

	logger.Info("bancho stopped")
}

// newKVStore wires Redis when an address is configured, falling back
// to the in-memory store for local development and tests.
func newKVStore(cfg *config.RedisConfig, logger *slog.Logger) (kv.Store, error) {
	if cfg == nil || cfg.Address == "" {
		logger.Warn("no redis address configured, using in-memory key/value store")
		return kv.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return kv.NewRedisStore(client), nil
}
