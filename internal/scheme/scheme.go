// Package scheme builds the runtime.Scheme shared by the reconciler and
// webhook managers, grounded on the teacher's gomaxprocs-webhook internal/scheme.
package scheme

import (
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

// New returns a runtime.Scheme registered with every type this operator's
// manager watches or owns: the StellarNode CRD plus the built-in workload,
// storage, and config types its builders emit. apiextensionsv1 is included so
// the installer can apply the StellarNode CustomResourceDefinition itself
// through the same client.
func New() *runtime.Scheme {
	s := runtime.NewScheme()
	utilruntime.Must(corev1.AddToScheme(s))
	utilruntime.Must(appsv1.AddToScheme(s))
	utilruntime.Must(apiextensionsv1.AddToScheme(s))
	utilruntime.Must(stellarv1alpha1.AddToScheme(s))
	return s
}
