package finalizer

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-node-operator/internal/builders"
	"github.com/stellar-k8s/stellar-node-operator/internal/events"
)

func testScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	for _, add := range []func(*runtime.Scheme) error{corev1.AddToScheme, appsv1.AddToScheme, stellarv1alpha1.AddToScheme} {
		if err := add(scheme); err != nil {
			t.Fatalf("AddToScheme() error = %v", err)
		}
	}
	return scheme
}

func validatorNodeWithRetention(retention stellarv1alpha1.RetentionPolicy) *stellarv1alpha1.StellarNode {
	return &stellarv1alpha1.StellarNode{
		ObjectMeta: metav1.ObjectMeta{Name: "core-1", Namespace: "stellar", UID: "uid-1"},
		Spec: stellarv1alpha1.StellarNodeSpec{
			NodeType: stellarv1alpha1.NodeTypeValidator,
			Network:  stellarv1alpha1.NetworkTestnet,
			Version:  "stellar/stellar-core:21.0.0",
			Replicas: 1,
			Storage: &stellarv1alpha1.StorageSpec{
				StorageClass: "fast-ssd",
				Size:         "100Gi",
				Retention:    retention,
			},
			ValidatorConfig: &stellarv1alpha1.ValidatorConfig{
				SeedSecretRef: "core-1-seed",
				QuorumSet:     stellarv1alpha1.QuorumSet{Threshold: 2, Validators: []string{"A"}},
			},
		},
	}
}

func TestEnsurePresentAddsFinalizerOnce(t *testing.T) {
	node := validatorNodeWithRetention(stellarv1alpha1.RetentionDelete)
	c := fake.NewClientBuilder().WithScheme(testScheme(t)).WithObjects(node).Build()

	added, err := EnsurePresent(context.Background(), c, node)
	if err != nil {
		t.Fatalf("EnsurePresent() error = %v", err)
	}
	if !added {
		t.Fatalf("EnsurePresent() added = false, want true on first call")
	}
	if !controllerutil.ContainsFinalizer(node, Name) {
		t.Fatalf("node missing finalizer %s after EnsurePresent()", Name)
	}

	added, err = EnsurePresent(context.Background(), c, node)
	if err != nil {
		t.Fatalf("second EnsurePresent() error = %v", err)
	}
	if added {
		t.Fatalf("EnsurePresent() added = true on second call, want false (already present)")
	}
}

func TestTeardownDeletesChildrenAndHonorsDeleteRetention(t *testing.T) {
	node := validatorNodeWithRetention(stellarv1alpha1.RetentionDelete)
	claim := builders.StandaloneClaim(node)
	svc := builders.Service(node)
	cfg := builders.Config(node)
	workload := builders.Workload(node)

	c := fake.NewClientBuilder().WithScheme(testScheme(t)).WithObjects(node, claim, svc, cfg, workload).Build()
	rec := events.NewRecorder(record.NewFakeRecorder(20))

	if err := Teardown(context.Background(), c, rec, node); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}

	var gotClaim corev1.PersistentVolumeClaim
	err := c.Get(context.Background(), ctrlclient.ObjectKeyFromObject(claim), &gotClaim)
	if err == nil {
		t.Fatalf("PVC still present after Teardown() with RetentionDelete")
	}
}

func TestTeardownRetainsStorageAndDropsOwnerRef(t *testing.T) {
	node := validatorNodeWithRetention(stellarv1alpha1.RetentionRetain)
	claim := builders.StandaloneClaim(node)
	svc := builders.Service(node)
	cfg := builders.Config(node)
	workload := builders.Workload(node)

	c := fake.NewClientBuilder().WithScheme(testScheme(t)).WithObjects(node, claim, svc, cfg, workload).Build()
	rec := events.NewRecorder(record.NewFakeRecorder(20))

	if err := Teardown(context.Background(), c, rec, node); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}

	var gotClaim corev1.PersistentVolumeClaim
	if err := c.Get(context.Background(), ctrlclient.ObjectKeyFromObject(claim), &gotClaim); err != nil {
		t.Fatalf("PVC missing after Teardown() with RetentionRetain: %v", err)
	}
	if len(gotClaim.OwnerReferences) != 0 {
		t.Fatalf("retained PVC still has owner references: %+v", gotClaim.OwnerReferences)
	}
	if gotClaim.Annotations[builders.RetentionAnnotation] != node.Name {
		t.Fatalf("retained PVC annotation = %q, want %q", gotClaim.Annotations[builders.RetentionAnnotation], node.Name)
	}
}

func TestRemoveDropsFinalizer(t *testing.T) {
	node := validatorNodeWithRetention(stellarv1alpha1.RetentionDelete)
	controllerutil.AddFinalizer(node, Name)
	c := fake.NewClientBuilder().WithScheme(testScheme(t)).WithObjects(node).Build()

	if err := Remove(context.Background(), c, node); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if controllerutil.ContainsFinalizer(node, Name) {
		t.Fatalf("node still has finalizer %s after Remove()", Name)
	}
}
