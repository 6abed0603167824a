package builders

import (
	"strconv"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

// MeshPolicies builds the 0-4 service-mesh policy objects for node (§4.B).
// Exactly one of Istio/Linkerd is set when ServiceMesh is non-nil (enforced by
// api/v1alpha1.Validate's AmbiguousMesh check), so at most one mesh's policies
// are ever returned. Objects are unstructured because the operator does not
// vendor Istio's or Linkerd's typed clientsets; this mirrors how the pack's
// hypershift examples build CAPI provider objects they also don't vendor.
func MeshPolicies(node *stellarv1alpha1.StellarNode) []*unstructured.Unstructured {
	mesh := node.Spec.ServiceMesh
	if mesh == nil {
		return nil
	}
	switch {
	case mesh.Istio != nil:
		return istioPolicies(node, mesh.Istio.CircuitBreaker)
	case mesh.Linkerd != nil:
		return linkerdPolicies(node, mesh.Linkerd.CircuitBreaker)
	default:
		return nil
	}
}

// istioPolicies builds all 4 names from MeshPolicyNames: a DestinationRule
// carrying connection-pool circuit-breaking, a VirtualService carrying the
// retry policy, a second DestinationRule carrying outlier detection, and a
// second VirtualService carrying the request timeout. All 4 derive from the
// same CircuitBreaker fields since the spec exposes no separate per-policy
// tuning.
func istioPolicies(node *stellarv1alpha1.StellarNode, cb *stellarv1alpha1.CircuitBreaker) []*unstructured.Unstructured {
	names := MeshPolicyNames(node)
	host := ServiceName(node)

	circuitBreaker := meshObject(node, "networking.istio.io/v1beta1", "DestinationRule", names[0])
	cbSpec := map[string]interface{}{"host": host}
	if cb != nil {
		cbSpec["trafficPolicy"] = map[string]interface{}{
			"connectionPool": map[string]interface{}{
				"tcp":  map[string]interface{}{"maxConnections": int64(cb.ConsecutiveErrors)},
				"http": map[string]interface{}{"http1MaxPendingRequests": int64(cb.ConsecutiveErrors)},
			},
		}
	}
	circuitBreaker.Object["spec"] = cbSpec

	retry := meshObject(node, "networking.istio.io/v1beta1", "VirtualService", names[1])
	retrySpec := map[string]interface{}{"hosts": []interface{}{host}}
	if cb != nil {
		retrySpec["http"] = []interface{}{
			map[string]interface{}{
				"retries": map[string]interface{}{
					"attempts":      int64(cb.ConsecutiveErrors),
					"retryOn":       "5xx",
					"perTryTimeout": durationString(cb.BaseEjectionSecs),
				},
			},
		}
	}
	retry.Object["spec"] = retrySpec

	outlier := meshObject(node, "networking.istio.io/v1beta1", "DestinationRule", names[2])
	outlierSpec := map[string]interface{}{"host": host}
	if cb != nil {
		outlierSpec["trafficPolicy"] = map[string]interface{}{
			"outlierDetection": map[string]interface{}{
				"consecutive5xxErrors": int64(cb.ConsecutiveErrors),
				"interval":             durationString(cb.TimeWindowSecs),
				"baseEjectionTime":     durationString(cb.BaseEjectionSecs),
			},
		}
	}
	outlier.Object["spec"] = outlierSpec

	timeout := meshObject(node, "networking.istio.io/v1beta1", "VirtualService", names[3])
	timeoutSpec := map[string]interface{}{"hosts": []interface{}{host}}
	if cb != nil {
		timeoutSpec["http"] = []interface{}{
			map[string]interface{}{"timeout": durationString(cb.TimeWindowSecs)},
		}
	}
	timeout.Object["spec"] = timeoutSpec

	return []*unstructured.Unstructured{circuitBreaker, retry, outlier, timeout}
}

// linkerdPolicies mirrors istioPolicies' 4-object shape using ServiceProfile,
// Linkerd's closest analog to Istio's DestinationRule/VirtualService.
func linkerdPolicies(node *stellarv1alpha1.StellarNode, cb *stellarv1alpha1.CircuitBreaker) []*unstructured.Unstructured {
	names := MeshPolicyNames(node)

	circuitBreaker := meshObject(node, "linkerd.io/v1alpha2", "ServiceProfile", names[0])
	cbSpec := map[string]interface{}{}
	if cb != nil {
		cbSpec["retryBudget"] = map[string]interface{}{
			"minRetriesPerSecond": int64(cb.ConsecutiveErrors),
			"ttl":                 durationString(cb.TimeWindowSecs),
		}
	}
	circuitBreaker.Object["spec"] = cbSpec

	retry := meshObject(node, "linkerd.io/v1alpha2", "ServiceProfile", names[1])
	retrySpec := map[string]interface{}{}
	if cb != nil {
		retrySpec["routes"] = []interface{}{
			map[string]interface{}{"name": "default", "isRetryable": true},
		}
	}
	retry.Object["spec"] = retrySpec

	outlier := meshObject(node, "linkerd.io/v1alpha2", "ServiceProfile", names[2])
	outlierSpec := map[string]interface{}{}
	if cb != nil {
		outlierSpec["failureAccrual"] = map[string]interface{}{
			"consecutiveFailures": int64(cb.ConsecutiveErrors),
			"backoff": map[string]interface{}{
				"minBackoff": durationString(cb.BaseEjectionSecs),
				"maxBackoff": durationString(cb.TimeWindowSecs),
			},
		}
	}
	outlier.Object["spec"] = outlierSpec

	timeout := meshObject(node, "linkerd.io/v1alpha2", "ServiceProfile", names[3])
	timeoutSpec := map[string]interface{}{}
	if cb != nil {
		timeoutSpec["routes"] = []interface{}{
			map[string]interface{}{"name": "default", "timeout": durationString(cb.BaseEjectionSecs)},
		}
	}
	timeout.Object["spec"] = timeoutSpec

	return []*unstructured.Unstructured{circuitBreaker, retry, outlier, timeout}
}

func meshObject(node *stellarv1alpha1.StellarNode, apiVersion, kind, name string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion(apiVersion)
	u.SetKind(kind)
	u.SetName(name)
	u.SetNamespace(node.Namespace)
	u.SetLabels(Labels(node))
	u.SetOwnerReferences([]metav1.OwnerReference{OwnerReference(node)})
	return u
}

func durationString(secs int32) string {
	return strconv.Itoa(int(secs)) + "s"
}
