package statuswriter

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

func testScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := stellarv1alpha1.AddToScheme(scheme); err != nil {
		t.Fatalf("AddToScheme() error = %v", err)
	}
	return scheme
}

func TestMutateAppliesAndPersistsStatus(t *testing.T) {
	node := &stellarv1alpha1.StellarNode{ObjectMeta: metav1.ObjectMeta{Name: "core-1", Namespace: "stellar"}}
	c := fake.NewClientBuilder().WithScheme(testScheme(t)).WithObjects(node).WithStatusSubresource(&stellarv1alpha1.StellarNode{}).Build()

	err := Mutate(context.Background(), c, node, func(n *stellarv1alpha1.StellarNode) {
		n.Status.Phase = stellarv1alpha1.PhaseRunning
		n.Status.LedgerSequence = 100
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if node.Status.Phase != stellarv1alpha1.PhaseRunning {
		t.Fatalf("Mutate() did not copy the updated status back into the caller's node: phase = %s", node.Status.Phase)
	}

	var got stellarv1alpha1.StellarNode
	if err := c.Get(context.Background(), ctrlclient.ObjectKeyFromObject(node), &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status.LedgerSequence != 100 {
		t.Fatalf("persisted Status.LedgerSequence = %d, want 100", got.Status.LedgerSequence)
	}
}

func TestMutateToleratesDeletedObject(t *testing.T) {
	node := &stellarv1alpha1.StellarNode{ObjectMeta: metav1.ObjectMeta{Name: "gone", Namespace: "stellar"}}
	c := fake.NewClientBuilder().WithScheme(testScheme(t)).WithStatusSubresource(&stellarv1alpha1.StellarNode{}).Build()

	err := Mutate(context.Background(), c, node, func(n *stellarv1alpha1.StellarNode) {
		n.Status.Phase = stellarv1alpha1.PhaseRunning
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v, want nil when the object no longer exists", err)
	}
}
