package v1alpha1

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

var log = ctrl.Log.WithName("stellarnode")

func (r *StellarNode) SetupWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(r).
		WithValidator(&stellarNodeValidator{}).
		Complete()
}

// stellarNodeValidator implements admission.CustomValidator for the CRD-level
// webhook: it enforces the invariants this API knows about on its own (§4.A,
// immutability) through Validate and ValidateImmutable. The plugin-driven
// admission pipeline in internal/admission is a separate webhook that does not
// call Validate; it runs only the loaded plugins (§4.J).
type stellarNodeValidator struct{}

var _ admission.CustomValidator = &stellarNodeValidator{}

func (v *stellarNodeValidator) ValidateCreate(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	node, ok := obj.(*StellarNode)
	if !ok {
		return nil, fmt.Errorf("expected a StellarNode but got %T", obj)
	}
	log.V(1).Info("validating create", "namespace", node.Namespace, "name", node.Name)
	if errs := Validate(&node.Spec); len(errs) > 0 {
		return nil, toInvalidError(node, errs)
	}
	return nil, nil
}

func (v *stellarNodeValidator) ValidateUpdate(_ context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	oldNode, ok := oldObj.(*StellarNode)
	if !ok {
		return nil, fmt.Errorf("expected a StellarNode but got %T", oldObj)
	}
	newNode, ok := newObj.(*StellarNode)
	if !ok {
		return nil, fmt.Errorf("expected a StellarNode but got %T", newObj)
	}
	log.V(1).Info("validating update", "namespace", newNode.Namespace, "name", newNode.Name)

	var fieldErrs field.ErrorList
	for _, e := range ValidateImmutable(&oldNode.Spec, &newNode.Spec) {
		fieldErrs = append(fieldErrs, field.Invalid(field.NewPath(e.Field), "", e.Error()))
	}
	if errs := Validate(&newNode.Spec); len(errs) > 0 {
		for _, e := range errs {
			fieldErrs = append(fieldErrs, field.Invalid(field.NewPath(e.Field), "", e.Message))
		}
	}
	if len(fieldErrs) == 0 {
		return nil, nil
	}
	return nil, apierrors.NewInvalid(schema.GroupKind{Group: GroupVersion.Group, Kind: "StellarNode"}, newNode.Name, fieldErrs)
}

func (v *stellarNodeValidator) ValidateDelete(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

func toInvalidError(node *StellarNode, errs ValidationErrors) error {
	fieldErrs := make(field.ErrorList, len(errs))
	for i, e := range errs {
		fieldErrs[i] = field.Invalid(field.NewPath(e.Field), "", e.Message)
	}
	return apierrors.NewInvalid(schema.GroupKind{Group: GroupVersion.Group, Kind: "StellarNode"}, node.Name, fieldErrs)
}
