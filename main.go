package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"                // loads .env automatically if present
	_ "github.com/mattn/go-sqlite3"                      // local fallback driver (sqlite file)
	_ "github.com/tursodatabase/libsql-client-go/libsql" // libSQL (Turso) driver

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartlink/cache"
	"smartlink/config"
	"smartlink/dedup"
	"smartlink/platform"
	"smartlink/store"
	"smartlink/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.LogLevel == "debug" || cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	var dbConn *sql.DB
	if cfg.DatabaseURL != "" {
		logger.Info("using libsql (Turso) DB", zap.String("url", cfg.DatabaseURL))
		dbConn, err = sql.Open("libsql", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("open libsql", zap.Error(err))
		}
	} else {
		if err := os.MkdirAll("data", 0o755); err != nil {
			logger.Fatal("create data dir", zap.Error(err))
		}
		logger.Info("using local sqlite file", zap.String("path", cfg.DatabasePath))
		dbConn, err = sql.Open("sqlite3", cfg.DatabasePath)
		if err != nil {
			logger.Fatal("open sqlite", zap.Error(err))
		}
		_, _ = dbConn.Exec("PRAGMA journal_mode=WAL;")
		_, _ = dbConn.Exec("PRAGMA synchronous=NORMAL;")
	}

	dbConn.SetMaxOpenConns(1)
	dbConn.SetMaxIdleConns(1)
	defer dbConn.Close()

	st := store.New(dbConn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Migrate(ctx); err != nil {
		cancel()
		logger.Fatal("migrate", zap.Error(err))
	}
	cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("parse redis url", zap.Error(err))
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	// an unreachable redis is survivable: resolve and dedup both degrade,
	// so a failed ping is only worth a warning
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable at startup, running degraded", zap.Error(err))
	}

	links := cache.New(rdb, st, cfg.CacheTTL, logger)

	deduper, err := dedup.New(rdb, cfg.DedupWindow, 65536, logger)
	if err != nil {
		logger.Fatal("dedup init", zap.Error(err))
	}

	platforms := &platform.Resolver{
		Scheme:      cfg.DeepLinkScheme,
		IOSStore:    cfg.IOSFallbackURL,
		AndroidPlay: cfg.AndroidFallbackURL,
		DefaultWeb:  cfg.DefaultRedirectURL,
	}

	cw := workers.NewClickWorker(st, links, deduper, logger, 400, 250*time.Millisecond, 8192)
	cw.Start()
	defer cw.Stop()

	aasa, err := os.ReadFile(cfg.AASAPath)
	if err != nil {
		logger.Warn("apple-app-site-association not readable, route disabled", zap.Error(err))
	}

	srv := NewServer(cfg, logger, st, links, cw, platforms, aasa)

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting server", zap.String("address", addr))
	if err := srv.Start(addr); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
