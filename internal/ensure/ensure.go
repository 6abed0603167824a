// Package ensure implements the idempotent "make the observed world match the
// desired world" primitive (§4.C) that every reconcile pass uses to create or
// update a StellarNode's children. It is grounded on the
// controllerutil.CreateOrUpdate pattern used throughout the teacher's
// hostedcontrolplane_controller.go, generalized into a single reusable helper
// instead of one inline call site per child kind.
package ensure

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/stellar-k8s/stellar-node-operator/internal/events"
)

// Result reports what ensuring a single child object did, so callers can
// aggregate it into a StellarNode's status or metrics without re-deriving it
// from controllerutil's own OperationResult.
type Result string

const (
	Unchanged Result = "Unchanged"
	Created   Result = "Created"
	Updated   Result = "Updated"
)

// Mutator copies the mutable fields of desired onto obj in place. obj is
// already populated with the observed object's ResourceVersion (or is a bare
// new object on create); Mutator must not touch Status, and must not remove
// fields it doesn't know about (e.g. a Service's ClusterIP) since the API
// server owns those.
type Mutator func(obj ctrlclient.Object) error

// Child ensures a single desired object exists and matches the fields the
// mutator sets, creating it if absent and patching it otherwise (§4.C). It
// never reads or writes obj's Status subresource. Events are recorded via rec,
// whose rate limit is keyed per (owner, reason), not per child kind: within one
// limiter window only the first Created (or Updated) event for an owner is
// emitted, whichever child kind it concerns.
func Child(ctx context.Context, c ctrlclient.Client, rec *events.Recorder, owner ctrlclient.Object, obj ctrlclient.Object, mutate Mutator) (Result, error) {
	kind := kindOf(c, obj)

	op, err := controllerutil.CreateOrUpdate(ctx, c, obj, func() error {
		return mutate(obj)
	})
	if err != nil {
		rec.Warn(owner, "EnsureFailed", fmt.Sprintf("failed to ensure %s %s: %v", kind, obj.GetName(), err))
		return "", fmt.Errorf("ensure %s %s: %w", kind, obj.GetName(), err)
	}

	switch op {
	case controllerutil.OperationResultCreated:
		rec.Info(owner, "Created", fmt.Sprintf("created %s %s", kind, obj.GetName()))
		return Created, nil
	case controllerutil.OperationResultUpdated:
		rec.Info(owner, "Updated", fmt.Sprintf("updated %s %s", kind, obj.GetName()))
		return Updated, nil
	default:
		return Unchanged, nil
	}
}

// Absent ensures obj does not exist, tolerating NotFound (§4.E, the deletion
// branch's per-child-kind removal step).
func Absent(ctx context.Context, c ctrlclient.Client, rec *events.Recorder, owner ctrlclient.Object, obj ctrlclient.Object) error {
	kind := kindOf(c, obj)
	if err := c.Delete(ctx, obj); err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		rec.Warn(owner, "DeleteFailed", fmt.Sprintf("failed to delete %s %s: %v", kind, obj.GetName(), err))
		return fmt.Errorf("delete %s %s: %w", kind, obj.GetName(), err)
	}
	rec.Info(owner, "Deleted", fmt.Sprintf("deleted %s %s", kind, obj.GetName()))
	return nil
}

func kindOf(c ctrlclient.Client, obj ctrlclient.Object) string {
	if u, ok := obj.(*unstructured.Unstructured); ok {
		return u.GetKind()
	}
	gvk, err := apiutil.GVKForObject(obj, c.Scheme())
	if err != nil {
		return fmt.Sprintf("%T", obj)
	}
	return gvk.Kind
}

// NoopMutate is a Mutator that leaves obj untouched beyond what CreateOrUpdate
// already copied in; used for child kinds whose desired state is entirely set
// at construction time and never needs a diff (e.g. the PVC storage claim,
// which Kubernetes disallows mutating after creation anyway).
func NoopMutate(ctrlclient.Object) error { return nil }
