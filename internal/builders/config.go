package builders

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

const configKey = "stellar-core.cfg"

// Config builds the rendered stellar-core/horizon configuration blob as a
// ConfigMap (§4.B). Rendering is pure text templating: no external config
// service is consulted, so the result is fully determined by spec.
func Config(node *stellarv1alpha1.StellarNode) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: ObjectMeta(node, ConfigName(node)),
		Data: map[string]string{
			configKey: renderConfig(node),
		},
	}
}

func renderConfig(node *stellarv1alpha1.StellarNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NETWORK_PASSPHRASE=%q\n", networkPassphrase(node.Spec.Network))

	switch node.Spec.NodeType {
	case stellarv1alpha1.NodeTypeValidator:
		vc := node.Spec.ValidatorConfig
		fmt.Fprintf(&b, "NODE_IS_VALIDATOR=true\n")
		fmt.Fprintf(&b, "HISTORY_ARCHIVE_ENABLED=%t\n", vc != nil && vc.EnableHistoryArchive)
		if vc != nil {
			fmt.Fprintf(&b, "QUORUM_THRESHOLD=%d\n", vc.QuorumSet.Threshold)
			for _, v := range vc.QuorumSet.Validators {
				fmt.Fprintf(&b, "QUORUM_SET_VALIDATORS+=%q\n", v)
			}
		}
	case stellarv1alpha1.NodeTypeHorizon:
		hc := node.Spec.HorizonConfig
		if hc != nil {
			fmt.Fprintf(&b, "INGEST_ENABLED=%t\n", hc.EnableIngest)
			fmt.Fprintf(&b, "STELLAR_CORE_URL=%q\n", hc.StellarCoreURL)
		}
	case stellarv1alpha1.NodeTypeSorobanRpc:
		sc := node.Spec.SorobanConfig
		if sc != nil {
			fmt.Fprintf(&b, "STELLAR_CORE_URL=%q\n", sc.StellarCoreURL)
		}
	}
	return b.String()
}

func networkPassphrase(network stellarv1alpha1.Network) string {
	switch network {
	case stellarv1alpha1.NetworkMainnet:
		return "Public Global Stellar Network ; September 2015"
	case stellarv1alpha1.NetworkTestnet:
		return "Test SDF Network ; September 2015"
	case stellarv1alpha1.NetworkFuturenet:
		return "Test SDF Future Network ; October 2022"
	default:
		return ""
	}
}
