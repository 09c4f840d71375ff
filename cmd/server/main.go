package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"url-redirector/internal/auth"
	"url-redirector/internal/config"
	"url-redirector/internal/handler"
	"url-redirector/internal/logging"
	"url-redirector/internal/repository"
	"url-redirector/internal/repository/migrations"
	"url-redirector/internal/service"
	"url-redirector/internal/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store repository.Store
		db    *sql.DB
	)
	switch cfg.Store {
	case config.StorePostgres:
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			logger.Error("open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			logger.Error("db ping", "error", err)
			os.Exit(1)
		}
		if cfg.Migrate {
			m, err := migrations.New(db, logger)
			if err != nil {
				logger.Error("prepare migrations", "error", err)
				os.Exit(1)
			}
			if err := m.Up(); err != nil {
				logger.Error("migrate", "error", err)
				os.Exit(1)
			}
		}
		store = repository.NewRepo(db)
	default:
		logger.Warn("using in-memory store, mappings are lost on restart")
		store = repository.NewMemory()
	}

	// Redis optional: buffers usage counts, otherwise each hit goes to the store.
	var (
		rdb      *redis.Client
		recorder usage.Recorder = usage.NewDirect(store)
		flushed  = make(chan struct{})
	)
	// The flusher outlives the server so increments issued during shutdown
	// are still drained.
	flushCtx, stopFlush := context.WithCancel(context.Background())
	defer stopFlush()
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed, counting usage directly", "error", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			logger.Info("redis connected", "addr", cfg.RedisAddr)
			buffered := usage.NewBuffered(rdb, store, logger)
			recorder = buffered
			go func() {
				defer close(flushed)
				buffered.Run(flushCtx, cfg.UsageFlushInterval)
			}()
		}
	}
	if rdb == nil {
		close(flushed)
	}

	svc := service.NewService(store, recorder, logger, service.Options{TrackTimeout: cfg.UsageTimeout})
	limiter := handler.NewSimpleRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if limiter != nil {
		go pruneLoop(ctx, limiter)
	}
	h := handler.NewHandler(svc, auth.NewVerifier(cfg.AdminJWTSecret), limiter, logger)

	// CORS
	allowed := handlers.AllowedOrigins(cfg.CORSOrigins)
	allowedHeaders := handlers.AllowedHeaders([]string{"Content-Type", "Authorization"})
	allowedMethods := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      recovery(handlers.CORS(allowed, allowedHeaders, allowedMethods)(h.Routes())),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// graceful shutdown
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	svc.Resolver.Wait()
	stopFlush()
	<-flushed
	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	logger.Info("server gracefully stopped")
}

func pruneLoop(ctx context.Context, rl *handler.SimpleRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune(10 * time.Minute)
		}
	}
}
