package v1alpha1

import (
	"fmt"
	"strconv"
	"strings"

	semver "github.com/blang/semver/v4"
	"k8s.io/apimachinery/pkg/api/resource"
)

// ValidationError describes a single spec defect found by Validate. It is never
// retried by the reconciler; it is surfaced verbatim in status and as an event.
type ValidationError struct {
	Field           string
	Message         string
	RemediationHint string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is an ordered list of ValidationError. A nil/empty list means valid.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func invalidEnum(field, got string, allowed ...string) ValidationError {
	return ValidationError{
		Field:           field,
		Message:         fmt.Sprintf("invalid value %q, allowed: %s", got, strings.Join(allowed, ", ")),
		RemediationHint: fmt.Sprintf("set %s to one of: %s", field, strings.Join(allowed, ", ")),
	}
}

// Validate checks a StellarNodeSpec against every invariant in the resource
// model (§4.A) and returns the complete list of defects found — it does not
// stop at the first error, since a user correcting one field at a time should
// see every remaining problem.
func Validate(spec *StellarNodeSpec) ValidationErrors {
	var errs ValidationErrors

	switch spec.NodeType {
	case NodeTypeValidator, NodeTypeHorizon, NodeTypeSorobanRpc:
	default:
		errs = append(errs, invalidEnum("spec.nodeType", string(spec.NodeType),
			string(NodeTypeValidator), string(NodeTypeHorizon), string(NodeTypeSorobanRpc)))
	}

	switch spec.Network {
	case NetworkMainnet, NetworkTestnet, NetworkFuturenet:
	default:
		errs = append(errs, invalidEnum("spec.network", string(spec.Network),
			string(NetworkMainnet), string(NetworkTestnet), string(NetworkFuturenet)))
	}

	if spec.Replicas < 1 {
		errs = append(errs, ValidationError{
			Field:           "spec.replicas",
			Message:         fmt.Sprintf("must be >= 1, got %d", spec.Replicas),
			RemediationHint: "set spec.replicas to a positive integer",
		})
	}

	errs = append(errs, validateStorage(spec)...)
	errs = append(errs, validateSubConfig(spec)...)
	errs = append(errs, validateResources(spec)...)
	errs = append(errs, validateServiceMesh(spec)...)
	errs = append(errs, validateVersion(spec)...)

	return errs
}

// validateVersion enforces that spec.version carries an image tag parsable as
// a semantic version, so the reconciler and any upgrade tooling can order
// versions without guessing at registry-specific tagging conventions.
func validateVersion(spec *StellarNodeSpec) ValidationErrors {
	tag := versionTag(spec.Version)
	if tag == "" {
		return ValidationErrors{ValidationError{
			Field:           "spec.version",
			Message:         fmt.Sprintf("%q is not an image reference with a tag", spec.Version),
			RemediationHint: `set spec.version to an image reference with a :<tag> suffix, e.g. "stellar/stellar-core:21.0.0"`,
		}}
	}
	if _, err := semver.ParseTolerant(tag); err != nil {
		return ValidationErrors{ValidationError{
			Field:           "spec.version",
			Message:         fmt.Sprintf("tag %q is not a semantic version: %v", tag, err),
			RemediationHint: `set spec.version's tag to a semantic version, e.g. "21.0.0"`,
		}}
	}
	return nil
}

// versionTag extracts the tag from an image reference, rejecting references
// whose final colon belongs to a registry host:port rather than a tag.
func versionTag(image string) string {
	idx := strings.LastIndex(image, ":")
	if idx < 0 {
		return ""
	}
	tag := image[idx+1:]
	if strings.Contains(tag, "/") {
		return ""
	}
	return tag
}

func validateStorage(spec *StellarNodeSpec) ValidationErrors {
	if spec.Storage == nil {
		if spec.NodeType == NodeTypeValidator || spec.NodeType == NodeTypeSorobanRpc {
			return ValidationErrors{ValidationError{
				Field:           "spec.storage",
				Message:         fmt.Sprintf("required when spec.nodeType=%s", spec.NodeType),
				RemediationHint: "add spec.storage with storageClass, size and retention",
			}}
		}
		return nil
	}
	var errs ValidationErrors
	switch spec.Storage.Retention {
	case RetentionRetain, RetentionDelete:
	default:
		errs = append(errs, invalidEnum("spec.storage.retention", string(spec.Storage.Retention),
			string(RetentionRetain), string(RetentionDelete)))
	}
	qty, err := resource.ParseQuantity(spec.Storage.Size)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:           "spec.storage.size",
			Message:         fmt.Sprintf("not a parsable quantity: %v", err),
			RemediationHint: `set spec.storage.size to a Kubernetes quantity, e.g. "100Gi"`,
		})
	} else if qty.Sign() <= 0 {
		errs = append(errs, ValidationError{
			Field:           "spec.storage.size",
			Message:         "must be > 0",
			RemediationHint: "set spec.storage.size to a positive quantity",
		})
	}
	return errs
}

// validateSubConfig enforces that exactly the sub-config matching spec.nodeType
// is present: MisplacedSubConfig covers both "missing the required one" and
// "supplied the wrong one".
func validateSubConfig(spec *StellarNodeSpec) ValidationErrors {
	var errs ValidationErrors

	present := map[string]bool{
		"validatorConfig": spec.ValidatorConfig != nil,
		"horizonConfig":   spec.HorizonConfig != nil,
		"sorobanConfig":   spec.SorobanConfig != nil,
	}
	required := map[NodeType]string{
		NodeTypeValidator:  "validatorConfig",
		NodeTypeHorizon:    "horizonConfig",
		NodeTypeSorobanRpc: "sorobanConfig",
	}[spec.NodeType]

	for name, isSet := range present {
		switch {
		case name == required && !isSet:
			errs = append(errs, ValidationError{
				Field:           "spec." + name,
				Message:         fmt.Sprintf("required when spec.nodeType=%s", spec.NodeType),
				RemediationHint: fmt.Sprintf("add spec.%s", name),
			})
		case name != required && isSet:
			errs = append(errs, ValidationError{
				Field:           "spec." + name,
				Message:         fmt.Sprintf("must not be set when spec.nodeType=%s (MisplacedSubConfig)", spec.NodeType),
				RemediationHint: fmt.Sprintf("remove spec.%s", name),
			})
		}
	}

	if spec.ValidatorConfig != nil {
		if spec.ValidatorConfig.SeedSecretRef == "" {
			errs = append(errs, ValidationError{
				Field:           "spec.validatorConfig.seedSecretRef",
				Message:         "must not be empty",
				RemediationHint: "set spec.validatorConfig.seedSecretRef to a Secret name in the same namespace",
			})
		}
		if spec.ValidatorConfig.QuorumSet.Threshold < 1 {
			errs = append(errs, ValidationError{
				Field:           "spec.validatorConfig.quorumSet.threshold",
				Message:         "must be >= 1",
				RemediationHint: "set spec.validatorConfig.quorumSet.threshold to a positive integer",
			})
		}
		if len(spec.ValidatorConfig.QuorumSet.Validators) == 0 {
			errs = append(errs, ValidationError{
				Field:           "spec.validatorConfig.quorumSet.validators",
				Message:         "must contain at least one entry",
				RemediationHint: "add at least one trusted validator to spec.validatorConfig.quorumSet.validators",
			})
		}
	}
	if spec.HorizonConfig != nil && spec.HorizonConfig.StellarCoreURL == "" {
		errs = append(errs, ValidationError{
			Field:           "spec.horizonConfig.stellarCoreUrl",
			Message:         "must not be empty",
			RemediationHint: "set spec.horizonConfig.stellarCoreUrl",
		})
	}
	if spec.SorobanConfig != nil && spec.SorobanConfig.StellarCoreURL == "" {
		errs = append(errs, ValidationError{
			Field:           "spec.sorobanConfig.stellarCoreUrl",
			Message:         "must not be empty",
			RemediationHint: "set spec.sorobanConfig.stellarCoreUrl",
		})
	}

	return errs
}

func validateResources(spec *StellarNodeSpec) ValidationErrors {
	if spec.Resources == nil {
		return nil
	}
	var errs ValidationErrors
	for name, limit := range spec.Resources.Limits {
		request, ok := spec.Resources.Requests[name]
		if !ok {
			continue
		}
		if limit.Cmp(request) < 0 {
			errs = append(errs, ValidationError{
				Field:           "spec.resources.limits." + string(name),
				Message:         fmt.Sprintf("limit %s is less than request %s", limit.String(), request.String()),
				RemediationHint: fmt.Sprintf("raise spec.resources.limits.%s to at least the request", name),
			})
		}
	}
	return errs
}

func validateServiceMesh(spec *StellarNodeSpec) ValidationErrors {
	if spec.ServiceMesh == nil {
		return nil
	}
	var errs ValidationErrors

	count := 0
	if spec.ServiceMesh.Istio != nil {
		count++
	}
	if spec.ServiceMesh.Linkerd != nil {
		count++
	}
	if count != 1 {
		errs = append(errs, ValidationError{
			Field:           "spec.serviceMesh",
			Message:         fmt.Sprintf("exactly one of istio/linkerd must be set (AmbiguousMesh), got %d", count),
			RemediationHint: "set exactly one of spec.serviceMesh.istio or spec.serviceMesh.linkerd",
		})
	}

	if spec.ServiceMesh.Istio != nil {
		errs = append(errs, validateCircuitBreaker("spec.serviceMesh.istio.circuitBreaker", spec.ServiceMesh.Istio.CircuitBreaker)...)
	}
	if spec.ServiceMesh.Linkerd != nil {
		errs = append(errs, validateCircuitBreaker("spec.serviceMesh.linkerd.circuitBreaker", spec.ServiceMesh.Linkerd.CircuitBreaker)...)
	}

	return errs
}

func validateCircuitBreaker(field string, cb *CircuitBreaker) ValidationErrors {
	if cb == nil {
		return nil
	}
	var errs ValidationErrors
	checks := []struct {
		name string
		val  int32
	}{
		{"consecutiveErrors", cb.ConsecutiveErrors},
		{"timeWindowSecs", cb.TimeWindowSecs},
		{"baseEjectionSecs", cb.BaseEjectionSecs},
	}
	for _, c := range checks {
		if c.val < 1 {
			errs = append(errs, ValidationError{
				Field:           field + "." + c.name,
				Message:         fmt.Sprintf("must be >= 1, got %s", strconv.FormatInt(int64(c.val), 10)),
				RemediationHint: fmt.Sprintf("set %s.%s to a positive integer", field, c.name),
			})
		}
	}
	return errs
}

// ImmutableFields lists the spec paths that the validating webhook rejects
// changes to once a StellarNode has been created (§6).
var ImmutableFields = []string{
	"spec.nodeType",
	"spec.network",
	"spec.storage.storageClass",
	"spec.storage.size",
	"spec.validatorConfig.seedSecretRef",
}

// ImmutableFieldError is returned by ValidateImmutable when an update changes a
// field listed in ImmutableFields.
type ImmutableFieldError struct {
	Field string
}

func (e ImmutableFieldError) Error() string {
	return fmt.Sprintf("ImmutableField: %s may not be changed after creation", e.Field)
}

// ValidateImmutable compares old and new specs and returns one ImmutableFieldError
// per changed immutable field.
func ValidateImmutable(oldSpec, newSpec *StellarNodeSpec) []ImmutableFieldError {
	var errs []ImmutableFieldError

	if oldSpec.NodeType != newSpec.NodeType {
		errs = append(errs, ImmutableFieldError{Field: "spec.nodeType"})
	}
	if oldSpec.Network != newSpec.Network {
		errs = append(errs, ImmutableFieldError{Field: "spec.network"})
	}
	oldStorage, newStorage := oldSpec.Storage, newSpec.Storage
	if oldStorage != nil && newStorage != nil {
		if oldStorage.StorageClass != newStorage.StorageClass {
			errs = append(errs, ImmutableFieldError{Field: "spec.storage.storageClass"})
		}
		if oldStorage.Size != newStorage.Size {
			errs = append(errs, ImmutableFieldError{Field: "spec.storage.size"})
		}
	}
	oldVC, newVC := oldSpec.ValidatorConfig, newSpec.ValidatorConfig
	if oldVC != nil && newVC != nil && oldVC.SeedSecretRef != newVC.SeedSecretRef {
		errs = append(errs, ImmutableFieldError{Field: "spec.validatorConfig.seedSecretRef"})
	}

	return errs
}
