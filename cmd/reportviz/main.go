// Command reportviz sends questions and section requests to the report agent
// and prints the resulting visualization state as JSON.
package main

import (
	"agentic_report/pkg/core/agent"
	"agentic_report/pkg/core/cards"
	"agentic_report/pkg/core/config"
	"agentic_report/pkg/core/pipeline"
	"agentic_report/pkg/core/progress"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	year        int
	metricsAddr string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reportviz",
	Short: "Turn annual report agent responses into visualization cards",
	Long: `reportviz talks to the annual report analysis agent and normalizes its
responses into tables, charts, insight cards, a DuPont tree and the
four-part business guidance summary.

The resulting view is printed to stdout as JSON. Render events for each
card are written to stderr as JSON lines.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().IntVar(&year, "year", 0, "DuPont year to display (default: reported year)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session bundles everything a command needs.
type session struct {
	cfg          config.Config
	client       *agent.Client
	reconciler   *cards.Reconciler
	handler      *pipeline.Handler
	orchestrator *pipeline.Orchestrator
	server       *http.Server
}

func newSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := cards.NewMetrics(reg)
	reconciler := cards.NewReconciler(newStreamRenderer(os.Stderr), cfg.ReconcilerConfig(), logger, metrics)
	store := cards.NewStore(
		cards.WithCapacity(cfg.Cards.MaxCards),
		cards.WithHiddenTitles(cfg.Cards.HiddenTitles...),
		cards.WithReconciler(reconciler),
		cards.WithMetrics(metrics),
		cards.WithLogger(logger),
	)

	handler := pipeline.NewHandler(store, logger)
	client := agent.NewClient(cfg.Agent, logger)
	prog := pipeline.ProgressConfig{
		Interval: cfg.Progress.Interval,
		Stages:   cfg.Progress.Stages,
		OnTick: func(t progress.Tick) {
			fmt.Fprintf(os.Stderr, "%s... (%ds)\n", t.Stage, int(t.Elapsed.Seconds()))
		},
	}

	s := &session{
		cfg:          cfg,
		client:       client,
		reconciler:   reconciler,
		handler:      handler,
		orchestrator: pipeline.NewOrchestrator(client, handler, prog, logger),
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		s.server = &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", metricsAddr))
	}
	return s, nil
}

// finish waits for pending renders, applies --year and prints the view.
func (s *session) finish() error {
	s.reconciler.Wait()
	if s.server != nil {
		_ = s.server.Close()
	}
	if year > 0 && !s.handler.SelectYear(year) {
		logger.Warn("no DuPont data for requested year", zap.Int("year", year))
	}
	return printView(os.Stdout, s.handler.View())
}
