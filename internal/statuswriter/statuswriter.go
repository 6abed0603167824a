// Package statuswriter implements the retry-on-conflict status update loop
// (§5, "a retry loop inside status-write handles the API's optimistic
// concurrency conflict by re-reading and re-applying"). It is grounded on the
// RetryOnConflict usage pattern present throughout the teacher's controllers
// package for status subresource writes.
package statuswriter

import (
	"context"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/util/retry"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

// Mutate applies fn to the freshest copy of node's status, retrying on
// conflict by re-reading the object and re-applying fn. fn should be a pure
// function of the passed-in node: it may be invoked more than once.
func Mutate(ctx context.Context, c ctrlclient.Client, node *stellarv1alpha1.StellarNode, fn func(*stellarv1alpha1.StellarNode)) error {
	key := ctrlclient.ObjectKeyFromObject(node)
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var latest stellarv1alpha1.StellarNode
		if err := c.Get(ctx, key, &latest); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		fn(&latest)
		if err := c.Status().Update(ctx, &latest); err != nil {
			return err
		}
		latest.DeepCopyInto(node)
		return nil
	})
}
