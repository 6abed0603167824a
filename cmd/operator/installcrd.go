package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stellar-k8s/stellar-node-operator/internal/crdassets"
	"github.com/stellar-k8s/stellar-node-operator/internal/scheme"
)

// newInstallCRDCmd applies the embedded StellarNode CustomResourceDefinition
// to the cluster pointed at by the ambient kubeconfig.
//
// Grounded on the teacher's cmd/install apply helper: a server-side apply
// Patch through a plain controller-runtime client, force-owned by this
// operator's field manager.
func newInstallCRDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install-crd",
		Short: "Apply the StellarNode CustomResourceDefinition to the cluster",
		RunE: func(c *cobra.Command, _ []string) error {
			return installCRD(c.Context())
		},
	}
}

func installCRD(ctx context.Context) error {
	crd, err := crdassets.StellarNodeCRD()
	if err != nil {
		return fmt.Errorf("loading embedded CRD: %w", err)
	}

	cl, err := ctrlclient.New(ctrl.GetConfigOrDie(), ctrlclient.Options{Scheme: scheme.New()})
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}

	crd.SetManagedFields(nil)
	if err := cl.Patch(ctx, crd, ctrlclient.Apply, ctrlclient.ForceOwnership, ctrlclient.FieldOwner("stellar-node-operator")); err != nil {
		return fmt.Errorf("applying CustomResourceDefinition %s: %w", crd.Name, err)
	}
	fmt.Printf("applied CustomResourceDefinition %s\n", crd.Name)
	return nil
}
