package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func main() {
	logger := zap.New()
	ctrl.SetLogger(logger)
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error(err, "command execution failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stellar-node-operator",
		Short:         "Reconciles StellarNode custom resources",
		RunE:          func(c *cobra.Command, _ []string) error { return c.Help() },
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInstallCRDCmd())
	return cmd
}
