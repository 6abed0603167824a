package builders

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

// Service builds the stable-name Service fronting node's workload (§4.B). For
// Validator/SorobanRpc StatefulSets this is headless, matching the
// StatefulSet's own ServiceName so pods get stable DNS identities; for the
// Horizon Deployment it is a normal ClusterIP service.
func Service(node *stellarv1alpha1.StellarNode) *corev1.Service {
	svc := &corev1.Service{
		ObjectMeta: ObjectMeta(node, ServiceName(node)),
		Spec: corev1.ServiceSpec{
			Selector: selectorLabels(node),
			Ports: []corev1.ServicePort{
				{Name: "sync", Port: syncHTTPPort, TargetPort: intstr.FromInt32(syncHTTPPort)},
			},
		},
	}
	if node.Spec.NodeType != stellarv1alpha1.NodeTypeHorizon {
		svc.Spec.ClusterIP = corev1.ClusterIPNone
	}
	return svc
}
