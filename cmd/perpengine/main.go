package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PerpEngine/internal/config"
	"PerpEngine/internal/observability"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "perpengine",
		Short:         "Deterministic perp and swap market engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newShowConfigCmd())
	return root
}

func newShowConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show-config",
		Short: "Print the effective configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Parse once so a bad factor fails here instead of at runtime.
			if _, err := cfg.MarketConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", cfg)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		steps      int
		seed       int64
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scenario simulator against an in-memory market",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cfg, steps, seed, interval)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of simulation steps (0 = run until signalled)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "deterministic simulation seed")
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "wall-clock delay between steps")
	return cmd
}

func run(cfg config.Config, steps int, seed int64, interval time.Duration) error {
	logger := observability.NewLoggerWithLevel("perpengine", parseLevel(cfg.LogLevel))
	logger.Info().Str("http_addr", cfg.HTTPAddr).Str("metrics_addr", cfg.MetricsAddr).Msg("starting")

	marketCfg, err := cfg.MarketConfig()
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	health := observability.NewHealthChecker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 2)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.LivenessHandler)
	healthMux.HandleFunc("/readyz", health.ReadinessHandler)
	healthServer := &http.Server{Addr: cfg.HTTPAddr, Handler: healthMux}
	go serveHTTP(ctx, healthServer, errChan)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go serveHTTP(ctx, metricsServer, errChan)

	sim := newSimulator(marketCfg, seed, logger, metrics)
	logger.Info().Str("market", marketCfg.Meta.MarketToken).Int64("seed", seed).Msg("market initialised")

	health.SetReady(true)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := 0
	for {
		select {
		case sig := <-sigChan:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
			sim.logSummary()
			return nil
		case err := <-errChan:
			return err
		case <-ticker.C:
			sim.step()
			done++
			if steps > 0 && done >= steps {
				logger.Info().Int("steps", done).Msg("simulation complete")
				sim.logSummary()
				return nil
			}
		}
	}
}

func serveHTTP(ctx context.Context, srv *http.Server, errChan chan<- error) {
	go func() {
		<-ctx.Done()
		shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		srv.Shutdown(shutCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("http server %s: %w", srv.Addr, err)
	}
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
