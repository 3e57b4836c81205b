package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/api"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/cache"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/database"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/storage"
)

func main() {
	cfg := config.GetCached()

	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	store := database.New(cfg, logger)
	defer store.Close()

	// 开发环境容忍数据库缺席（读路径降级为演示数据），生产环境不容忍
	if _, unavailable := store.(*database.UnavailableStore); unavailable && cfg.IsProduction() {
		logger.Fatal().Msg("database is required in production")
	}

	uploads, err := storage.NewUploads(cfg.UploadsDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare uploads directory")
	}

	stats := cache.NewStatsCache(cfg.RedisURL, logger)
	defer stats.Close()

	handler := api.New(cfg, store, uploads, stats, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("🚀 Mi Ciudad SV API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("🛑 shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
}

// newLogger 开发环境彩色控制台输出，生产环境JSON
func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}
