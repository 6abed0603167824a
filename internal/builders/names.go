// Package builders contains the pure, deterministic functions that turn a
// StellarNode spec into its desired child Kubernetes objects (§4.B). No
// function in this package talks to the API server: given the same
// (spec, generation) input they always produce the same output, which is
// what makes the ensure layer (internal/ensure) idempotent.
package builders

import (
	"fmt"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

const (
	suffixStorage = "storage"
	suffixConfig  = "config"
	suffixService = "svc"
	suffixMeshCircuitBreaker = "mesh-cb"
	suffixMeshRetry          = "mesh-retry"
	suffixMeshOutlier        = "mesh-outlier"
	suffixMeshTimeout        = "mesh-timeout"
)

// WorkloadName is the stable name of the Deployment/StatefulSet for a node.
// It equals the StellarNode name itself, per §4.B's "{crName}[-{childKind}]"
// scheme where the workload carries no suffix.
func WorkloadName(node *stellarv1alpha1.StellarNode) string {
	return node.Name
}

// StorageName is the stable name/name-prefix of the PVC(s) for a node.
func StorageName(node *stellarv1alpha1.StellarNode) string {
	return childName(node, suffixStorage)
}

// ConfigName is the stable name of the rendered config blob for a node.
func ConfigName(node *stellarv1alpha1.StellarNode) string {
	return childName(node, suffixConfig)
}

// ServiceName is the stable name of the Service for a node.
func ServiceName(node *stellarv1alpha1.StellarNode) string {
	return childName(node, suffixService)
}

// MeshPolicyNames returns the stable names of the (up to 4) mesh-policy
// children for a node, in creation order.
func MeshPolicyNames(node *stellarv1alpha1.StellarNode) []string {
	return []string{
		childName(node, suffixMeshCircuitBreaker),
		childName(node, suffixMeshRetry),
		childName(node, suffixMeshOutlier),
		childName(node, suffixMeshTimeout),
	}
}

func childName(node *stellarv1alpha1.StellarNode, kind string) string {
	return fmt.Sprintf("%s-%s", node.Name, kind)
}
