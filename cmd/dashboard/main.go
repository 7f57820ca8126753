package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"example.com/timestats/internal/config"
	"example.com/timestats/internal/dashboard"
	"example.com/timestats/internal/input"
	"example.com/timestats/internal/logging"
	"example.com/timestats/internal/source"
	"example.com/timestats/internal/stats"
	httptransport "example.com/timestats/internal/transport/http"
	"example.com/timestats/internal/tui"
	"example.com/timestats/internal/view"
	"example.com/timestats/internal/web"
)

var rootCmd = &cobra.Command{
	Use:           "dashboard",
	Short:         "dashboard - time tracking report",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the interactive terminal dashboard",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard page over HTTP",
	RunE:  runServe,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Acquire once and print the cards",
	RunE:  runSnapshot,
}

var (
	endpointFlag  string
	staticFlag    string
	intervalFlag  time.Duration
	logLevelFlag  string
	logFileFlag   string
	addrFlag      string
	timeframeFlag string
	jsonFlag      bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&endpointFlag, "endpoint", "", "Stats API base URL (overrides STATS_ENDPOINT, \"-\" disables the remote source)")
	flags.StringVar(&staticFlag, "static", "", "Bundled snapshot path (overrides STATIC_SNAPSHOT_PATH)")
	flags.DurationVar(&intervalFlag, "interval", 0, "Refresh interval (overrides REFRESH_INTERVAL)")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level (overrides LOG_LEVEL)")

	tuiCmd.Flags().StringVar(&logFileFlag, "log-file", "", "Write logs to this file instead of discarding them")
	serveCmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Listen address (overrides DASHBOARD_ADDRESS)")
	snapshotCmd.Flags().StringVarP(&timeframeFlag, "timeframe", "t", string(stats.Weekly), "Timeframe to print (daily, weekly, monthly)")
	snapshotCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the rendered view as JSON")

	rootCmd.AddCommand(tuiCmd, serveCmd, snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig() config.Config {
	cfg := config.Load()
	if endpointFlag != "" {
		cfg.StatsEndpoint = endpointFlag
	}
	if cfg.StatsEndpoint == "-" {
		cfg.StatsEndpoint = ""
	}
	if staticFlag != "" {
		cfg.StaticSnapshotPath = staticFlag
	}
	if intervalFlag > 0 {
		cfg.RefreshInterval = intervalFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if addrFlag != "" {
		cfg.DashboardAddress = addrFlag
	}
	return cfg
}

func newDashboard(cfg config.Config, logger zerolog.Logger) *dashboard.Dashboard {
	chain := source.NewDefaultChain(source.Config{
		Endpoint:   cfg.StatsEndpoint,
		Token:      cfg.StatsToken,
		Timeout:    cfg.RemoteTimeout,
		Static:     os.DirFS(filepath.Dir(cfg.StaticSnapshotPath)),
		StaticPath: filepath.Base(cfg.StaticSnapshotPath),
	}, source.WithLogger(logger))
	return dashboard.New(chain, dashboard.WithLogger(logger), dashboard.WithRefreshInterval(cfg.RefreshInterval))
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// The alternate screen owns the terminal, so logs never go to stderr here.
	var out io.Writer = io.Discard
	if logFileFlag != "" {
		f, err := os.OpenFile(logFileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := logging.NewWithWriter(out, cfg.LogLevel, false)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dash := newDashboard(cfg, logger)
	dash.Start(ctx)
	defer dash.Stop()

	return tui.Run(ctx, dash)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := logging.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", "timestats-dashboard").Logger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dash := newDashboard(cfg, logger)
	dash.Start(ctx)
	defer dash.Stop()

	mux := http.NewServeMux()
	web.NewHandler(dash, web.WithLogger(logger)).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.DashboardAddress), httptransport.Chain(mux,
		httptransport.RequestID,
		httptransport.AccessLog(logger),
	))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.DashboardAddress).Msg("dashboard listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	tf, err := stats.ParseTimeframe(timeframeFlag)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, false)

	dash := newDashboard(cfg, logger)
	if _, err := dash.Select(input.Activation{Target: tf, Kind: input.Keyboard, Key: "enter"}); err != nil {
		return err
	}
	rv := dash.Refresh(cmd.Context())
	src, _ := dash.LastRefresh()

	return printSnapshot(cmd.OutOrStdout(), rv, src, jsonFlag)
}

type snapshotOutput struct {
	view.RenderedView
	Source string `json:"source"`
}

func printSnapshot(w io.Writer, rv view.RenderedView, src string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshotOutput{RenderedView: rv, Source: src})
	}

	fmt.Fprintf(w, "Time tracking report (%s, source: %s)\n", rv.Timeframe, src)
	if rv.Loading {
		_, err := fmt.Fprintln(w, "No activities.")
		return err
	}
	for _, card := range rv.Cards {
		line := fmt.Sprintf("%-10s %8s   %s - %s", card.Title, hours(card.CurrentHours), card.PreviousLabel, hours(card.PreviousHours))
		if card.Missing {
			line += "   (no data)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "hrs"
}
