package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/peakwatch/stock-gateway/internal/catalog"
	"github.com/peakwatch/stock-gateway/internal/config"
	"github.com/peakwatch/stock-gateway/internal/gateway"
	"github.com/peakwatch/stock-gateway/internal/metrics"
	"github.com/peakwatch/stock-gateway/internal/refresh"
	"github.com/peakwatch/stock-gateway/internal/search"
	"github.com/peakwatch/stock-gateway/internal/upstream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()

	// --- Snapshot store ---
	var store catalog.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		store = catalog.NewPostgresStore(pool)
		slog.Info("catalog store: PostgreSQL")
	} else {
		fs, err := catalog.NewFileStore(cfg.DataDir)
		if err != nil {
			slog.Error("snapshot dir unavailable", "err", err)
			os.Exit(1)
		}
		store = fs
		slog.Info("catalog store: snapshot files", "dir", cfg.DataDir)
	}

	// Wrap with Redis read-through cache if configured.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		store = catalog.NewCachedStore(store, rdb, 30*time.Second)
		slog.Info("Redis catalog cache enabled")
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Upstream provider client ---
	provider := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeout)

	// --- WebSocket hub ---
	wsHub := gateway.NewWSHub()
	go wsHub.Run()

	// --- Snapshot refresher ---
	refresher := refresh.New(provider, store, cfg.MarketCodes, wsHub)
	if err := refresher.Start(cfg.RefreshSchedule, cfg.RefreshTimezone); err != nil {
		slog.Error("refresh schedule failed", "err", err)
		os.Exit(1)
	}
	defer refresher.Stop()

	// --- Gateway service ---
	engine := search.NewEngine(store, cfg.MarketCodes)
	svc := gateway.NewService(engine, provider, store, refresher)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"stock-gateway"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if len(cfg.AllowedReferers) > 0 {
			r.Use(gateway.RefererCheck(cfg.AllowedReferers))
		}
		r.Use(gateway.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

		// WebSocket endpoint for snapshot refresh notifications.
		r.Get("/ws", wsHub.HandleWS)

		// Symbol search and single-instrument analytics.
		r.Get("/search", svc.Search)
		r.Get("/peak-drop", svc.PeakDrop)
		r.Get("/chart", svc.Chart)
		r.Get("/market-indices", svc.MarketIndices)

		// DCA backtesting.
		r.Get("/backtest/historical-prices", svc.HistoricalPrices)
		r.Post("/backtest/dca", svc.RunBacktest)
		r.Post("/backtest/validate", svc.ValidateBacktest)

		// Snapshot administration.
		r.Get("/admin/refresh", svc.RefreshStatus)
		r.Post("/admin/refresh", svc.TriggerRefresh)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("stock-gateway listening", "port", cfg.Port, "upstream", cfg.UpstreamURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down stock-gateway...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("stock-gateway stopped")
}
