package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escape-room-service/internal/app"
	"escape-room-service/internal/config"
	"escape-room-service/internal/content"
	"escape-room-service/internal/infra/memory"
	pgloader "escape-room-service/internal/infra/postgres"
	infraredis "escape-room-service/internal/infra/redis"
	"escape-room-service/internal/ledger"
	"escape-room-service/internal/logger"
	transport "escape-room-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the escape-room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Development)
	defer log.Sync()

	if err := cfg.Game.Validate(); err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var loader memory.CatalogLoader
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewCatalogLoader(pool)
	} else {
		catalog, err := content.Default()
		if err != nil {
			return err
		}
		loader = memory.NewStaticCatalogLoader(catalog)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = infraredis.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	// Fail fast on content that cannot be played with the configured rules.
	catalog, err := catalogs.GetCatalog(ctx, cfg.Catalog.ID)
	if err != nil {
		return err
	}
	if err := catalog.Validate(cfg.Game); err != nil {
		return err
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	ledgerImpl, closeLedger, err := newLedger(cfg, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	service := app.NewGameService(store, catalogs, memory.NewLeaderboard(memory.MockEntries...), app.ServiceOptions{
		Rules:         cfg.Game,
		CatalogID:     cfg.Catalog.ID,
		Ledger:        ledgerImpl,
		LedgerTimeout: config.TTLDuration(cfg.Ledger.Timeout, 5*time.Second),
		Logger:        log,
	})
	mux := transport.NewMux(service, transport.NewWSHandler(service, log))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting escape-room service",
			zap.String("port", finalPort),
			zap.String("catalog", catalog.ID),
			zap.String("scoring", cfg.Game.Scoring),
			zap.String("ledger", cfg.Ledger.Mode))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newLedger selects the ledger boundary. The core behaves the same in every mode.
func newLedger(cfg config.Config, log *zap.Logger) (ledger.Ledger, func(), error) {
	switch cfg.Ledger.Mode {
	case config.LedgerModeAMQP:
		relay, closeRelay, err := ledger.DialRelay(cfg.Ledger.AMQPURL, cfg.Ledger.Exchange,
			cfg.Ledger.ContractAddress, cfg.Ledger.ChainID, log)
		if err != nil {
			return nil, nil, err
		}
		return relay, closeRelay, nil
	case "", config.LedgerModeNoop:
		return ledger.NewNoop(log), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger mode %q", cfg.Ledger.Mode)
	}
}
