// Package controller implements the StellarNode state-machine reconciler
// (§4.F). It is grounded on the overall shape of the teacher's
// HostedControlPlaneReconciler.Reconcile: fetch-or-bail on NotFound, branch on
// DeletionTimestamp, ensure a finalizer, ensure children in declared order,
// and write status through a single terminal path per pass.
package controller

import (
	"context"
	"fmt"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
	"github.com/stellar-k8s/stellar-node-operator/internal/builders"
	"github.com/stellar-k8s/stellar-node-operator/internal/ensure"
	"github.com/stellar-k8s/stellar-node-operator/internal/events"
	"github.com/stellar-k8s/stellar-node-operator/internal/finalizer"
	"github.com/stellar-k8s/stellar-node-operator/internal/health"
	"github.com/stellar-k8s/stellar-node-operator/internal/statuswriter"
)

// unknownRequeue is the fixed requeue interval used after a HealthUnknown or
// HealthUnhealthy verdict (§4.F: "on Unknown/Unhealthy→EnsureChildren with
// requeue after 10 s").
const unknownRequeue = 10 * time.Second

// maxStateTransitions bounds a single pass's internal transitions; exceeding
// it indicates a logic bug, not user error (§4.F, §8).
const maxStateTransitions = 20

// reconcileDeadline bounds the wall-clock time of a single pass (§5).
const reconcileDeadline = 2 * time.Minute

// StellarNodeReconciler drives a single StellarNode toward its declared spec.
type StellarNodeReconciler struct {
	Client ctrlclient.Client
	Prober *health.Prober
	Rec    *events.Recorder

	// Workers bounds MaxConcurrentReconciles; zero means the
	// controller-runtime default of one.
	Workers int
}

// SetupWithManager registers watches on StellarNode and its typed child kinds
// (StatefulSet, Deployment, Service, PersistentVolumeClaim, ConfigMap) (§4.G):
// child-object events map back to their owner key via owner references, which
// the builder's Owns() already resolves, so no custom key-mapping function is
// required. The unstructured mesh-policy children are not watched.
func (r *StellarNodeReconciler) SetupWithManager(mgr ctrl.Manager) error {
	_, err := ctrl.NewControllerManagedBy(mgr).
		For(&stellarv1alpha1.StellarNode{}).
		Owns(&appsv1.StatefulSet{}).
		Owns(&appsv1.Deployment{}).
		Owns(&corev1.Service{}).
		Owns(&corev1.PersistentVolumeClaim{}).
		Owns(&corev1.ConfigMap{}).
		WithOptions(controller.Options{
			RateLimiter:             workqueue.NewItemExponentialFailureRateLimiter(1*time.Second, 5*time.Minute),
			MaxConcurrentReconciles: r.Workers,
		}).
		Complete(r)
	if err != nil {
		return fmt.Errorf("setting up with controller manager: %w", err)
	}
	return nil
}

// Reconcile implements the single entry point of the state machine (§4.F). It
// always performs a fresh read of the live object, never trusts prior-pass
// assumptions (level-triggered recovery), and returns a ctrl.Result encoding
// the requeue policy.
func (r *StellarNodeReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := ctrl.LoggerFrom(ctx).WithValues("stellarnode", req.NamespacedName)
	ctx = ctrl.LoggerInto(ctx, log)

	ctx, cancel := context.WithTimeout(ctx, reconcileDeadline)
	defer cancel()

	var node stellarv1alpha1.StellarNode
	if err := r.Client.Get(ctx, req.NamespacedName, &node); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, fmt.Errorf("fetching StellarNode: %w", err)
	}

	if !node.DeletionTimestamp.IsZero() {
		return r.reconcileDeleting(ctx, &node)
	}

	added, err := finalizer.EnsurePresent(ctx, r.Client, &node)
	if err != nil {
		return ctrl.Result{}, err
	}
	if added {
		// §4.F Init: patch and return, no further work this pass.
		return ctrl.Result{Requeue: true}, nil
	}

	return r.reconcileLive(ctx, &node)
}

func (r *StellarNodeReconciler) reconcileLive(ctx context.Context, node *stellarv1alpha1.StellarNode) (ctrl.Result, error) {
	log := ctrl.LoggerFrom(ctx)
	transitions := 0
	step := func() error {
		transitions++
		if transitions > maxStateTransitions {
			return fmt.Errorf("exceeded %d state transitions in a single pass", maxStateTransitions)
		}
		return nil
	}

	if err := step(); err != nil {
		return r.abort(ctx, node, err)
	}
	if errs := stellarv1alpha1.Validate(&node.Spec); len(errs) > 0 {
		return r.specInvalid(ctx, node, errs)
	}

	if err := step(); err != nil {
		return r.abort(ctx, node, err)
	}
	if err := r.ensureChildren(ctx, node); err != nil {
		return r.ensureFailed(ctx, node, err)
	}

	if err := step(); err != nil {
		return r.abort(ctx, node, err)
	}
	report, err := r.probeHealth(ctx, node)
	if err != nil {
		return r.ensureFailed(ctx, node, err)
	}

	switch report.Verdict {
	case health.Healthy:
		if err := step(); err != nil {
			return r.abort(ctx, node, err)
		}
		if node.Spec.ServiceMesh != nil {
			if err := r.ensureMesh(ctx, node); err != nil {
				return r.ensureFailed(ctx, node, err)
			}
		}
		return r.stable(ctx, node, report)
	default:
		log.V(1).Info("health check not yet healthy", "verdict", report.Verdict, "reason", report.Reason)
		return r.healthPending(ctx, node, report)
	}
}

func (r *StellarNodeReconciler) reconcileDeleting(ctx context.Context, node *stellarv1alpha1.StellarNode) (ctrl.Result, error) {
	if err := statuswriter.Mutate(ctx, r.Client, node, func(n *stellarv1alpha1.StellarNode) {
		n.Status.Phase = stellarv1alpha1.PhaseDeleting
	}); err != nil {
		return ctrl.Result{}, fmt.Errorf("updating status to Deleting: %w", err)
	}

	if err := finalizer.Teardown(ctx, r.Client, r.Rec, node); err != nil {
		return ctrl.Result{}, fmt.Errorf("tearing down children: %w", err)
	}

	if err := finalizer.Remove(ctx, r.Client, node); err != nil {
		return ctrl.Result{}, err
	}

	r.Rec.Forget(node)
	return ctrl.Result{}, nil
}

func (r *StellarNodeReconciler) ensureChildren(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	if builders.NeedsStorage(node) {
		claim := builders.StandaloneClaim(node)
		if _, err := ensure.Child(ctx, r.Client, r.Rec, node, claim, ensure.NoopMutate); err != nil {
			return fmt.Errorf("ensuring storage: %w", err)
		}
	}

	cfg := builders.Config(node)
	desiredCfg := cfg.DeepCopy()
	if _, err := ensure.Child(ctx, r.Client, r.Rec, node, cfg, func(obj ctrlclient.Object) error {
		cm := obj.(*corev1.ConfigMap)
		cm.Data = desiredCfg.Data
		cm.Labels = desiredCfg.Labels
		return nil
	}); err != nil {
		return fmt.Errorf("ensuring config: %w", err)
	}

	if err := r.ensureWorkload(ctx, node); err != nil {
		return fmt.Errorf("ensuring workload: %w", err)
	}

	svc := builders.Service(node)
	desiredSvc := svc.DeepCopy()
	if _, err := ensure.Child(ctx, r.Client, r.Rec, node, svc, func(obj ctrlclient.Object) error {
		s := obj.(*corev1.Service)
		s.Labels = desiredSvc.Labels
		s.Spec.Selector = desiredSvc.Spec.Selector
		s.Spec.Ports = desiredSvc.Spec.Ports
		if desiredSvc.Spec.ClusterIP == corev1.ClusterIPNone {
			s.Spec.ClusterIP = corev1.ClusterIPNone
		}
		return nil
	}); err != nil {
		return fmt.Errorf("ensuring service: %w", err)
	}

	return nil
}

func (r *StellarNodeReconciler) ensureWorkload(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	desired := builders.Workload(node)
	switch d := desired.(type) {
	case *appsv1.StatefulSet:
		_, err := ensure.Child(ctx, r.Client, r.Rec, node, d, func(obj ctrlclient.Object) error {
			sts := obj.(*appsv1.StatefulSet)
			sts.Labels = d.Labels
			sts.Spec.Replicas = d.Spec.Replicas
			sts.Spec.ServiceName = d.Spec.ServiceName
			sts.Spec.Selector = d.Spec.Selector
			sts.Spec.Template = d.Spec.Template
			return nil
		})
		return err
	case *appsv1.Deployment:
		_, err := ensure.Child(ctx, r.Client, r.Rec, node, d, func(obj ctrlclient.Object) error {
			dep := obj.(*appsv1.Deployment)
			dep.Labels = d.Labels
			dep.Spec.Replicas = d.Spec.Replicas
			dep.Spec.Selector = d.Spec.Selector
			dep.Spec.Template = d.Spec.Template
			return nil
		})
		return err
	default:
		return fmt.Errorf("unexpected workload type %T", desired)
	}
}

func (r *StellarNodeReconciler) ensureMesh(ctx context.Context, node *stellarv1alpha1.StellarNode) error {
	for _, u := range builders.MeshPolicies(node) {
		desiredSpec, _, _ := unstructured.NestedMap(u.Object, "spec")
		if _, err := ensure.Child(ctx, r.Client, r.Rec, node, u, func(obj ctrlclient.Object) error {
			observed := obj.(*unstructured.Unstructured)
			observed.SetLabels(u.GetLabels())
			if desiredSpec != nil {
				return unstructured.SetNestedMap(observed.Object, desiredSpec, "spec")
			}
			return nil
		}); err != nil {
			return fmt.Errorf("ensuring mesh policy %s: %w", u.GetName(), err)
		}
	}
	return nil
}

func (r *StellarNodeReconciler) probeHealth(ctx context.Context, node *stellarv1alpha1.StellarNode) (health.Report, error) {
	host := builders.ServiceName(node)
	if node.Spec.NodeType != stellarv1alpha1.NodeTypeHorizon {
		host = host + "." + node.Namespace + ".svc"
	}
	return r.Prober.Probe(ctx, health.URL(host)), nil
}

func (r *StellarNodeReconciler) specInvalid(ctx context.Context, node *stellarv1alpha1.StellarNode, errs stellarv1alpha1.ValidationErrors) (ctrl.Result, error) {
	msg := errs.Error()
	r.Rec.Warn(node, "ValidationFailed", msg)
	if err := statuswriter.Mutate(ctx, r.Client, node, func(n *stellarv1alpha1.StellarNode) {
		n.Status.Phase = stellarv1alpha1.PhasePending
		setReady(n, metav1.ConditionFalse, stellarv1alpha1.ReasonValidationFailed, msg, n.Generation)
	}); err != nil {
		return ctrl.Result{}, err
	}
	// Requeue only when generation changes: no timed requeue here, rely on
	// the watch event a spec update produces.
	return ctrl.Result{}, nil
}

func (r *StellarNodeReconciler) ensureFailed(ctx context.Context, node *stellarv1alpha1.StellarNode, cause error) (ctrl.Result, error) {
	r.Rec.Warn(node, "EnsureFailed", cause.Error())
	if err := statuswriter.Mutate(ctx, r.Client, node, func(n *stellarv1alpha1.StellarNode) {
		n.Status.Phase = stellarv1alpha1.PhaseCreating
		setReady(n, metav1.ConditionFalse, stellarv1alpha1.ReasonEnsureFailed, cause.Error(), n.Generation)
	}); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, cause
}

func (r *StellarNodeReconciler) healthPending(ctx context.Context, node *stellarv1alpha1.StellarNode, report health.Report) (ctrl.Result, error) {
	reason := stellarv1alpha1.ReasonHealthUnknown
	msg := report.Reason
	if report.Verdict == health.Unhealthy {
		reason = stellarv1alpha1.ReasonHealthUnhealthy
	}
	if err := statuswriter.Mutate(ctx, r.Client, node, func(n *stellarv1alpha1.StellarNode) {
		n.Status.Phase = stellarv1alpha1.PhaseCreating
		setReady(n, metav1.ConditionFalse, reason, msg, n.Generation)
	}); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{RequeueAfter: unknownRequeue}, nil
}

func (r *StellarNodeReconciler) stable(ctx context.Context, node *stellarv1alpha1.StellarNode, report health.Report) (ctrl.Result, error) {
	if err := statuswriter.Mutate(ctx, r.Client, node, func(n *stellarv1alpha1.StellarNode) {
		n.Status.Phase = stellarv1alpha1.PhaseRunning
		n.Status.ObservedGeneration = n.Generation
		n.Status.LedgerSequence = report.LedgerSequence
		setReady(n, metav1.ConditionTrue, stellarv1alpha1.ReasonAsExpected, "node is synced and serving", n.Generation)
	}); err != nil {
		return ctrl.Result{}, err
	}
	// Stable: wait for the next watch event rather than a timed requeue.
	return ctrl.Result{}, nil
}

func (r *StellarNodeReconciler) abort(ctx context.Context, node *stellarv1alpha1.StellarNode, cause error) (ctrl.Result, error) {
	r.Rec.Warn(node, "InternalError", cause.Error())
	if err := statuswriter.Mutate(ctx, r.Client, node, func(n *stellarv1alpha1.StellarNode) {
		setReady(n, metav1.ConditionFalse, stellarv1alpha1.ReasonInternalError, cause.Error(), n.Generation)
	}); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{RequeueAfter: 5 * time.Minute}, cause
}

func setReady(node *stellarv1alpha1.StellarNode, status metav1.ConditionStatus, reason, message string, generation int64) {
	apimeta.SetStatusCondition(&node.Status.Conditions, metav1.Condition{
		Type:               stellarv1alpha1.ConditionReady,
		Status:             status,
		Reason:             reason,
		Message:            message,
		ObservedGeneration: generation,
	})
}
