package builders

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

// ManagedByValue is the app.kubernetes.io/managed-by label value carried by
// every child object this operator creates.
const ManagedByValue = "stellar-node-operator"

// Labels returns the label set every child of node must carry (§4.B).
func Labels(node *stellarv1alpha1.StellarNode) map[string]string {
	return map[string]string{
		"app.kubernetes.io/managed-by": ManagedByValue,
		"stellar.stellar-k8s.io/owner": node.Name,
		"stellar.stellar-k8s.io/node-type": string(node.Spec.NodeType),
		"stellar.stellar-k8s.io/network":   string(node.Spec.Network),
	}
}

// OwnerReference returns a controller owner reference pointing at node, with
// controller=true and blockOwnerDeletion=true per §4.B.
func OwnerReference(node *stellarv1alpha1.StellarNode) metav1.OwnerReference {
	isController := true
	blockDeletion := true
	return metav1.OwnerReference{
		APIVersion:         stellarv1alpha1.GroupVersion.String(),
		Kind:               "StellarNode",
		Name:               node.Name,
		UID:                node.UID,
		Controller:         &isController,
		BlockOwnerDeletion: &blockDeletion,
	}
}

// ObjectMeta assembles the standard ObjectMeta for a child object with the
// given name: namespace, owner reference, and labels.
func ObjectMeta(node *stellarv1alpha1.StellarNode, name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:            name,
		Namespace:       node.Namespace,
		Labels:          Labels(node),
		OwnerReferences: []metav1.OwnerReference{OwnerReference(node)},
	}
}
