// Package v1alpha1 contains the StellarNode custom resource API schema.
//
// +kubebuilder:object:generate=true
// +groupName=stellar.stellar-k8s.io
package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is the API group and version used for every type in this package.
	GroupVersion = schema.GroupVersion{Group: "stellar.stellar-k8s.io", Version: "v1alpha1"}

	// SchemeBuilder accumulates the Go types known to this API group.
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme registers every type in this package with a runtime.Scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)

func init() {
	SchemeBuilder.Register(&StellarNode{}, &StellarNodeList{})
}

// Kind returns the GroupKind for a given kind string in this API group.
func Kind(kind string) schema.GroupKind {
	return GroupVersion.WithKind(kind).GroupKind()
}

// Resource returns the GroupResource for a given resource string in this API group.
func Resource(resource string) schema.GroupResource {
	return GroupVersion.WithResource(resource).GroupResource()
}

// ObjectMeta is re-exported so callers building fixtures do not need a second import.
type ObjectMeta = metav1.ObjectMeta
