package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	wadmission "sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"github.com/stellar-k8s/stellar-node-operator/internal/admission"
	"github.com/stellar-k8s/stellar-node-operator/internal/config"
	"github.com/stellar-k8s/stellar-node-operator/internal/registry"
	"github.com/stellar-k8s/stellar-node-operator/internal/scheme"
)

func newServeCmd() *cobra.Command {
	cfg := config.DefaultAdmission()
	var metricsAddr, probeAddr, configPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admission and plugin-management server",
		RunE: func(c *cobra.Command, _ []string) error {
			return runServer(c.Context(), cfg, metricsAddr, probeAddr, port, configPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config-path", "", "Optional path to a YAML file overlaying the flags above.")
	flags.StringVar(&cfg.CertFile, "tls-cert-file", cfg.CertFile, "Path to the TLS certificate used by the webhook server.")
	flags.StringVar(&cfg.KeyFile, "tls-key-file", cfg.KeyFile, "Path to the TLS private key used by the webhook server.")
	flags.DurationVar(&cfg.WebhookTimeout, "webhook-timeout", cfg.WebhookTimeout, "Overall budget for a single admission review, including every plugin (§4.J).")
	flags.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metrics endpoint binds to.")
	flags.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flags.IntVar(&port, "port", 8443, "Port for the admission webhook server.")
	flags.BoolVar(&cfg.LogDevMode, "log-dev", cfg.LogDevMode, "Enable development logging (human-friendly).")
	flags.IntVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log verbosity level (0=info only, 1=verbose, 2=debug).")

	return cmd
}

func runServer(ctx context.Context, cfg config.Admission, metricsAddr, probeAddr string, port int, configPath string) error {
	if configPath != "" {
		overlaid, err := config.LoadAdmissionFile(configPath, cfg)
		if err != nil {
			return fmt.Errorf("loading --config-path: %w", err)
		}
		cfg = overlaid
	}

	logger := zap.New(zap.UseDevMode(cfg.LogDevMode), zap.Level(zapcore.Level(-1*cfg.LogLevel)))
	ctrl.SetLogger(logger)

	certDir, certName := filepath.Split(cfg.CertFile)
	_, keyName := filepath.Split(cfg.KeyFile)

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme.New(),
		Metrics:                metricsserver.Options{BindAddress: metricsAddr},
		HealthProbeBindAddress: probeAddr,
		WebhookServer: webhook.NewServer(webhook.Options{
			Port:     port,
			CertDir:  certDir,
			CertName: certName,
			KeyName:  keyName,
			TLSOpts: []func(*tls.Config){
				func(c *tls.Config) { c.MinVersion = tls.VersionTLS12 },
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("unable to start manager: %w", err)
	}

	reg := registry.New()
	srv := admission.NewServer(reg, logger)

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", srv.ReadyCheck()); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	hookServer := mgr.GetWebhookServer()
	hookServer.Register("/validate", &wadmission.Webhook{Handler: srv.ValidateHandler(), Timeout: &cfg.WebhookTimeout})
	hookServer.Register("/mutate", &wadmission.Webhook{Handler: srv.MutateHandler(), Timeout: &cfg.WebhookTimeout})
	hookServer.Register("/plugins", srv.ManagementHandler())
	hookServer.Register("/plugins/", srv.ManagementHandler())

	logger.Info("starting admission server", "port", port)
	return mgr.Start(ctx)
}
