package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-node-operator/internal/config"
	"github.com/stellar-k8s/stellar-node-operator/internal/controller"
	"github.com/stellar-k8s/stellar-node-operator/internal/events"
	"github.com/stellar-k8s/stellar-node-operator/internal/health"
	"github.com/stellar-k8s/stellar-node-operator/internal/scheme"
)

func newServeCmd() *cobra.Command {
	cfg := config.DefaultOperator()
	var enableLeaderElection bool
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the StellarNode reconciler manager",
		RunE: func(c *cobra.Command, _ []string) error {
			return runManager(c.Context(), cfg, enableLeaderElection, configPath)
		},
	}

	bindServeFlags(cmd.Flags(), &cfg, &enableLeaderElection, &configPath)

	return cmd
}

// bindServeFlags registers the serve command's flags against an explicit
// pflag.FlagSet, grounded on the teacher's cmd/nodepool BindOptions helpers
// that bind onto a *pflag.FlagSet rather than a *cobra.Command.
func bindServeFlags(flags *pflag.FlagSet, cfg *config.Operator, enableLeaderElection *bool, configPath *string) {
	flags.StringVar(configPath, "config-path", "", "Optional path to a YAML file overlaying the flags above.")
	flags.StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "Restrict watches to a single namespace; empty watches all namespaces.")
	flags.StringVar(&cfg.MetricsBindAddress, "metrics-bind-address", cfg.MetricsBindAddress, "The address the metrics endpoint binds to.")
	flags.StringVar(&cfg.ProbeBindAddress, "health-probe-bind-address", cfg.ProbeBindAddress, "The address the probe endpoint binds to.")
	flags.IntVar(&cfg.Workers, "max-concurrent-reconciles", cfg.Workers, "Maximum number of concurrent StellarNode reconciles.")
	flags.BoolVar(enableLeaderElection, "leader-elect", false, "Enable leader election for controller manager HA.")
	flags.BoolVar(&cfg.LogDevMode, "log-dev", cfg.LogDevMode, "Enable development logging (human-friendly).")
	flags.IntVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log verbosity level (0=info only, 1=verbose, 2=debug).")
}

func runManager(ctx context.Context, cfg config.Operator, enableLeaderElection bool, configPath string) error {
	if configPath != "" {
		overlaid, err := config.LoadOperatorFile(configPath, cfg)
		if err != nil {
			return fmt.Errorf("loading --config-path: %w", err)
		}
		cfg = overlaid
	}

	logger := zap.New(zap.UseDevMode(cfg.LogDevMode), zap.Level(zapcore.Level(-1*cfg.LogLevel)))
	ctrl.SetLogger(logger)

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme.New(),
		Metrics:                metricsserver.Options{BindAddress: cfg.MetricsBindAddress},
		HealthProbeBindAddress: cfg.ProbeBindAddress,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       cfg.LeaderElectionID,
		Cache:                  cacheOptionsFor(cfg.Namespace),
	})
	if err != nil {
		return fmt.Errorf("unable to start manager: %w", err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	reconciler := &controller.StellarNodeReconciler{
		Client:  mgr.GetClient(),
		Prober:  health.NewProber(),
		Rec:     events.NewRecorder(mgr.GetEventRecorderFor("stellarnode-controller")),
		Workers: cfg.Workers,
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		return fmt.Errorf("unable to set up StellarNode controller: %w", err)
	}

	if err := (&stellarv1alpha1.StellarNode{}).SetupWebhookWithManager(mgr); err != nil {
		return fmt.Errorf("unable to set up StellarNode validating webhook: %w", err)
	}

	logger.Info("starting manager", "namespace", cfg.Namespace, "workers", cfg.Workers)
	return mgr.Start(ctx)
}

// cacheOptionsFor restricts the manager's cache to a single namespace when
// namespace is non-empty; an empty namespace watches the whole cluster.
func cacheOptionsFor(namespace string) cache.Options {
	if namespace == "" {
		return cache.Options{}
	}
	return cache.Options{
		DefaultNamespaces: map[string]cache.Config{
			namespace: {},
		},
	}
}
