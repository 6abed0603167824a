package builders

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

// storageClaimTemplate builds the PVC template embedded in a StatefulSet's
// VolumeClaimTemplates. Kubernetes derives one claim per replica from it with
// names of the form "<volume>-<workload>-<ordinal>", which is what gives
// Validator and SorobanRpc a claim per replica (§4.B).
func storageClaimTemplate(node *stellarv1alpha1.StellarNode) corev1.PersistentVolumeClaim {
	size := resource.MustParse(node.Spec.Storage.Size)
	storageClass := node.Spec.Storage.StorageClass
	return corev1.PersistentVolumeClaim{
		ObjectMeta: ObjectMeta(node, dataVolumeName),
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			StorageClassName: &storageClass,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: size},
			},
		},
	}
}

// StandaloneClaim builds the standalone PersistentVolumeClaim object used for
// retention bookkeeping during the deletion branch (§4.E): unlike the
// VolumeClaimTemplate embedded in the StatefulSet, this is a concrete,
// listable/gettable object the ensure and finalizer layers can query, diff,
// and annotate directly.
func StandaloneClaim(node *stellarv1alpha1.StellarNode) *corev1.PersistentVolumeClaim {
	if node.Spec.Storage == nil {
		return nil
	}
	size := resource.MustParse(node.Spec.Storage.Size)
	storageClass := node.Spec.Storage.StorageClass
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: ObjectMeta(node, StorageName(node)),
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			StorageClassName: &storageClass,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: size},
			},
		},
	}
}

// NeedsStorage reports whether node's node type requires a storage claim at all.
func NeedsStorage(node *stellarv1alpha1.StellarNode) bool {
	return node.Spec.NodeType != stellarv1alpha1.NodeTypeHorizon && node.Spec.Storage != nil
}

// RetentionAnnotation is set on a retained claim once its owning StellarNode is
// deleted, so operators can tell a retained claim apart from an orphan.
const RetentionAnnotation = "stellar.stellar-k8s.io/retained-from"
