package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helvia-io/maestro/internal/config"
	"github.com/helvia-io/maestro/internal/idempotency"
	"github.com/helvia-io/maestro/internal/notebook"
	"github.com/helvia-io/maestro/internal/planner"
	"github.com/helvia-io/maestro/internal/ratelimit"
	"github.com/helvia-io/maestro/internal/server"
	"github.com/helvia-io/maestro/internal/store"
	"github.com/helvia-io/maestro/internal/tools"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Maestro chat server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", config.DefaultListenAddr, "HTTP listen address")
	_ = viper.BindPFlag(config.KeyListenAddr, serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	mem := store.NewMemoryStore()
	var primary store.Store
	if cfg.RedisURL != "" {
		rs, err := store.NewRedisStore(store.RedisConfig{
			Address: cfg.RedisURL,
			Timeout: cfg.StoreTimeout,
		})
		if err != nil {
			return fmt.Errorf("initializing shared store: %w", err)
		}
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisURL).
				Msg("shared store unreachable at startup, serving degraded until it recovers")
		}
		primary = rs
	}
	failover := store.NewFailover(primary, mem)

	limiter := ratelimit.New(failover)
	idem := idempotency.New(failover, cfg.IdempotencyTTL)

	notebookStore, err := notebook.NewStore(cfg.NotebookDBPath())
	if err != nil {
		return fmt.Errorf("initializing notebook: %w", err)
	}
	defer notebookStore.Close()

	registry := tools.MustNewRegistry()
	if err := notebook.RegisterProviders(registry, notebookStore); err != nil {
		return fmt.Errorf("registering notebook providers: %w", err)
	}

	classifier, err := planner.DefaultClassifier(cfg.IntentsPath)
	if err != nil {
		return fmt.Errorf("loading intent patterns: %w", err)
	}

	plans := planner.NewPlanStore(cfg.PlanTTL)

	var orchOpts []planner.Option
	if cfg.OpenAIAPIKey != "" {
		orchOpts = append(orchOpts, planner.WithSummarizer(planner.NewOpenAISummarizer(cfg.OpenAIAPIKey)))
		log.Info().Msg("llm_summarizer_enabled")
	}
	orch := planner.New(classifier, registry, plans, orchOpts...)

	// Expired plans and dead in-process store entries are reclaimed on a
	// schedule rather than on every request.
	sweeper := cron.New()
	_, err = sweeper.AddFunc("@every 1m", func() {
		mem.Sweep()
		if n := plans.Sweep(); n > 0 {
			log.Debug().Int("expired", n).Msg("plan_store_swept")
		}
	})
	if err != nil {
		return fmt.Errorf("registering sweep schedule: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	srv := server.NewServer(orch, limiter, idem,
		server.WithGlobalRPM(cfg.GlobalRPM),
		server.WithFailover(failover),
		server.WithPlanStore(plans),
		server.WithCORSOrigins([]string{"*"}),
	)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", cfg.ListenAddr).
		Bool("single_node", cfg.SingleNode()).
		Dur("plan_ttl", cfg.PlanTTL).
		Int("global_rpm", cfg.GlobalRPM).
		Int("tools", len(registry.Registered())).
		Msg("maestro_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}
