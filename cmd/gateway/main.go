// Command gateway runs the hotel distribution gateway HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/distribn/hotel-gateway/internal/booking"
	bookingpg "github.com/distribn/hotel-gateway/internal/booking/postgres"
	"github.com/distribn/hotel-gateway/internal/cache"
	cachepg "github.com/distribn/hotel-gateway/internal/cache/postgres"
	"github.com/distribn/hotel-gateway/internal/cache/redisx"
	"github.com/distribn/hotel-gateway/internal/catalogue"
	"github.com/distribn/hotel-gateway/internal/circuit"
	"github.com/distribn/hotel-gateway/internal/config"
	"github.com/distribn/hotel-gateway/internal/httpapi"
	"github.com/distribn/hotel-gateway/internal/logging"
	"github.com/distribn/hotel-gateway/internal/metrics"
	"github.com/distribn/hotel-gateway/internal/ratelimit"
	"github.com/distribn/hotel-gateway/internal/resolver"
	"github.com/distribn/hotel-gateway/internal/search"
	"github.com/distribn/hotel-gateway/internal/upstream"
)

var providersPath string

func main() {
	root := &cobra.Command{
		Use:   "gateway",
		Short: "Hotel distribution gateway",
		RunE:  run,
	}
	root.Flags().StringVar(&providersPath, "providers", "providers.yaml", "optional per-endpoint quota overlay")

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("gateway exited with error")
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(providersPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	var store cache.Store = cachepg.New(db)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store = redisx.New(rdb, store)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis hot-path cache mirror enabled")
	}

	cat := catalogue.New(db)
	orderStore := bookingpg.New(db)

	quotas := mergedQuotas(cfg.Endpoints)
	governor := ratelimit.New(quotas)
	breakers := circuit.NewManager()

	upClient := upstream.NewClient(upstream.Config{
		BaseURL:        cfg.UpstreamBaseURL,
		ContentBaseURL: cfg.UpstreamContentBaseURL,
		PartnerID:      cfg.UpstreamPartnerID,
		APIKey:         cfg.UpstreamAPIKey,
	}, governor, breakers)

	res := resolver.New(store, upClient)
	orchestrator := search.New(res, store, cat, upClient)
	machine := booking.New(orderStore, upClient)
	poller := booking.NewPoller(machine, upClient)
	reg := metrics.New()

	srv := &httpapi.Server{
		Search:   orchestrator,
		Booking:  machine,
		Content:  upClient,
		Cache:    store,
		Registry: reg,
		Poller:   poller,
		Deadline: cfg.RequestDeadline,
	}
	router := srv.NewRouter(reg.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	governorSweeper := ratelimit.NewSweeper(governor, cfg.GovernorSweepInterval)
	cacheSweeper := cache.NewSweeper(store, cfg.CacheSweepInterval)
	go governorSweeper.Run(ctx)
	go cacheSweeper.Run(ctx)

	go func() {
		log.Info().Int("port", cfg.Port).Msg("gateway listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	governorSweeper.Stop()
	cacheSweeper.Stop()
	return httpServer.Shutdown(shutdownCtx)
}

// mergedQuotas layers providers.yaml overrides on top of the compiled-in
// defaults from internal/upstream — every spec.md §4.2 endpoint is always
// covered even with no overlay present.
func mergedQuotas(overrides map[string]config.EndpointConfig) map[string]ratelimit.Quota {
	quotas := upstream.DefaultQuotas()
	for endpoint, o := range overrides {
		if o.RequestsAllowed <= 0 || o.WindowSeconds <= 0 {
			continue
		}
		quotas[endpoint] = ratelimit.Quota{
			RequestsAllowed: o.RequestsAllowed,
			Window:          time.Duration(o.WindowSeconds) * time.Second,
			IsLimited:       true,
		}
	}
	return quotas
}
