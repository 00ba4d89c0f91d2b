package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sealbin/cfg"
	"sealbin/metrics"
	"sealbin/svc/api"
	"sealbin/svc/auth"
	"sealbin/svc/cache"
	"sealbin/svc/db"
	"sealbin/svc/secrets"
	"sealbin/svc/svc"
	"sealbin/svc/util"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-health" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		dbPath := os.Getenv("DATABASE_PATH")
		if dbPath == "" {
			dbPath = "sealbin.db"
		}
		sqlDB, err := db.NewSQLite(dbPath)
		if err != nil {
			os.Exit(1)
		}
		defer sqlDB.Close()
		if err := sqlDB.Ping(ctx); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Msg("starting sealbin API")
	metrics.Init()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.TokensFromSecrets {
		adapter, err := secrets.NewAdapter(ctx)
		if err != nil {
			util.Fatal().Err(err).Msg("failed to initialize secrets adapter")
			os.Exit(1)
		}
		apiToken, err := adapter.GetSecret(ctx, "API_TOKEN")
		if err != nil || apiToken == "" {
			util.Fatal().Err(err).Msg("CRITICAL: failed to load API token from secrets")
			os.Exit(1)
		}
		c.APIToken = cfg.NewSecret(apiToken)
		if adminTokens, err := adapter.GetSecret(ctx, "ADMIN_TOKENS"); err == nil && adminTokens != "" {
			c.AdminTokens = nil
			for _, t := range strings.Split(adminTokens, ",") {
				if t = strings.TrimSpace(t); t != "" {
					c.AdminTokens = append(c.AdminTokens, cfg.NewSecret(t))
				}
			}
		}
	}
	if c.APIToken.Value() == "" {
		util.Fatal().Msg("CRITICAL: no API token configured")
		os.Exit(1)
	}

	sqlDB, err := db.NewSQLiteWithConfig(c.DatabasePath, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBQueryTimeout)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to initialize database")
		os.Exit(1)
	}
	defer sqlDB.Close()
	util.Info().Str("path", c.DatabasePath).Msg("database initialized")

	var rdb *db.Redis
	if c.RedisURL != "" {
		rdb, err = db.NewRedis(c.RedisURL, c)
		if err != nil {
			if c.Environment == "production" {
				util.Fatal().Err(err).Msg("CRITICAL: Redis required in production")
				os.Exit(1)
			}
			util.Warn().Err(err).Msg("redis unavailable (dev mode)")
			rdb = nil
		} else {
			util.Info().Msg("redis connected")
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	lruCache, err := cache.NewLRU(c.LRUCacheSize)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to create LRU cache")
		os.Exit(1)
	}
	util.Info().Int("size", c.LRUCacheSize).Msg("LRU cache initialized")

	authority := auth.NewAuthority(c)
	defer authority.Wipe()
	pasteSvc := svc.NewPaste(sqlDB, lruCache, rdb, c)
	reportSvc := svc.NewReport(sqlDB, c)
	util.Info().Bool("reports_enabled", c.ReportsEnabled).Msg("services initialized")

	server := api.NewServer(c, authority, pasteSvc, reportSvc, sqlDB, rdb)

	quitWAL := make(chan struct{})
	go db.StartWALMaintenance(sqlDB.DB(), quitWAL)
	util.Info().Msg("WAL maintenance worker started")

	sweeper := svc.NewSweeper(sqlDB, c.SweepInterval)
	sweeper.Start(ctx)

	util.Info().Str("port", c.Port).Str("environment", c.Environment).Msg("server starting")
	go func() {
		if err := server.Start(); err != nil {
			util.Fatal().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	util.Info().Msg("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("server shutdown error")
	}
	close(quitWAL)
	cancel()
	select {
	case <-sweeper.Done():
		util.Info().Msg("expiry sweeper stopped")
	case <-time.After(5 * time.Second):
		util.Warn().Msg("expiry sweeper did not stop gracefully")
	}
	util.Info().Msg("Shutdown complete")
}
