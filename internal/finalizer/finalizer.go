// Package finalizer implements the cleanup-guard entry check and the ordered
// deletion branch (§4.E). Both are grounded on the finalizer-handling idiom in
// the teacher's hostedcontrolplane_controller.go, which also patches a
// finalizer on first-seen objects and runs an explicit step list on the
// deletion path.
package finalizer

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-node-operator/internal/builders"
	"github.com/stellar-k8s/stellar-node-operator/internal/ensure"
	"github.com/stellar-k8s/stellar-node-operator/internal/events"
)

// Name is the cleanup-guard token stored in StellarNode.Finalizers.
const Name = stellarv1alpha1.CleanupFinalizer

// EnsurePresent adds the cleanup finalizer to node if absent, via a single
// patch, and reports whether it made a change. Callers stop the pass and
// requeue immediately when it returns true, per §4.F's `Init` state.
func EnsurePresent(ctx context.Context, c ctrlclient.Client, node *stellarv1alpha1.StellarNode) (bool, error) {
	if controllerutil.ContainsFinalizer(node, Name) {
		return false, nil
	}
	patch := ctrlclient.MergeFrom(node.DeepCopy())
	controllerutil.AddFinalizer(node, Name)
	if err := c.Patch(ctx, node, patch); err != nil {
		return false, fmt.Errorf("adding cleanup finalizer: %w", err)
	}
	return true, nil
}

// Teardown runs the ordered deletion steps of §4.E against node's children.
// It returns nil only once every step has succeeded and it is safe for the
// caller to remove the finalizer; mesh-policy deletion failures are recorded
// here as a Warning event (via rec) but do not block later steps, matching the
// "only step that tolerates partial failure" rule.
func Teardown(ctx context.Context, c ctrlclient.Client, rec *events.Recorder, node *stellarv1alpha1.StellarNode) error {
	// Step 1: mesh policies, best-effort.
	for _, u := range builders.MeshPolicies(node) {
		if err := ensure.Absent(ctx, c, rec, node, u); err != nil {
			rec.Warn(node, "MeshCleanupFailed", err.Error())
		}
	}

	// Step 2: service.
	svc := builders.Service(node)
	svc.Name = builders.ServiceName(node)
	svc.Namespace = node.Namespace
	if err := ensure.Absent(ctx, c, rec, node, svc); err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}

	// Step 3: workload.
	if err := deleteWorkload(ctx, c, rec, node); err != nil {
		return fmt.Errorf("deleting workload: %w", err)
	}

	// Step 4: storage, per retention policy.
	if err := teardownStorage(ctx, c, rec, node); err != nil {
		return fmt.Errorf("applying storage retention: %w", err)
	}

	// Step 5: config blob.
	cfg := builders.Config(node)
	if err := ensure.Absent(ctx, c, rec, node, cfg); err != nil {
		return fmt.Errorf("deleting config: %w", err)
	}

	return nil
}

func deleteWorkload(ctx context.Context, c ctrlclient.Client, rec *events.Recorder, node *stellarv1alpha1.StellarNode) error {
	return ensure.Absent(ctx, c, rec, node, builders.Workload(node))
}

func teardownStorage(ctx context.Context, c ctrlclient.Client, rec *events.Recorder, node *stellarv1alpha1.StellarNode) error {
	claim := builders.StandaloneClaim(node)
	if claim == nil {
		return nil
	}
	storage := node.Spec.Storage
	if storage != nil && storage.Retention == stellarv1alpha1.RetentionRetain {
		return annotateRetained(ctx, c, node, claim)
	}
	return ensure.Absent(ctx, c, rec, node, claim)
}

func annotateRetained(ctx context.Context, c ctrlclient.Client, node *stellarv1alpha1.StellarNode, claim *corev1.PersistentVolumeClaim) error {
	key := ctrlclient.ObjectKeyFromObject(claim)
	var obj corev1.PersistentVolumeClaim
	if err := c.Get(ctx, key, &obj); err != nil {
		return ctrlclient.IgnoreNotFound(err)
	}
	patch := ctrlclient.MergeFrom(obj.DeepCopy())
	annotations := obj.GetAnnotations()
	if annotations == nil {
		annotations = map[string]string{}
	}
	annotations[builders.RetentionAnnotation] = node.Name
	obj.SetAnnotations(annotations)
	// Drop the owner reference so garbage collection never reaps a retained
	// claim once the StellarNode itself is gone.
	obj.SetOwnerReferences(nil)
	return c.Patch(ctx, &obj, patch)
}

// Remove patches node to drop the cleanup finalizer (§4.E step 6); the
// reconciler invokes it as soon as Teardown has returned nil. No re-list of
// owned children is made before the finalizer is dropped.
func Remove(ctx context.Context, c ctrlclient.Client, node *stellarv1alpha1.StellarNode) error {
	if !controllerutil.ContainsFinalizer(node, Name) {
		return nil
	}
	patch := ctrlclient.MergeFrom(node.DeepCopy())
	controllerutil.RemoveFinalizer(node, Name)
	if err := c.Patch(ctx, node, patch); err != nil {
		return fmt.Errorf("removing cleanup finalizer: %w", err)
	}
	return nil
}
