package v1alpha1

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

func baseValidatorSpec() *StellarNodeSpec {
	return &StellarNodeSpec{
		NodeType: NodeTypeValidator,
		Network:  NetworkTestnet,
		Version:  "stellar/stellar-core:21.0.0",
		Replicas: 1,
		Storage: &StorageSpec{
			StorageClass: "fast-ssd",
			Size:         "100Gi",
			Retention:    RetentionDelete,
		},
		ValidatorConfig: &ValidatorConfig{
			SeedSecretRef: "core-1-seed",
			QuorumSet:     QuorumSet{Threshold: 2, Validators: []string{"A", "B"}},
		},
	}
}

func TestValidateAcceptsWellFormedSpec(t *testing.T) {
	if errs := Validate(baseValidatorSpec()); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors for a well-formed spec", errs)
	}
}

func TestValidateRejectsUnknownNodeType(t *testing.T) {
	spec := baseValidatorSpec()
	spec.NodeType = "Bogus"
	if errs := Validate(spec); !hasField(errs, "spec.nodeType") {
		t.Fatalf("Validate() = %v, want an error on spec.nodeType", errs)
	}
}

func TestValidateRejectsUnknownNetwork(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Network = "Bogus"
	if errs := Validate(spec); !hasField(errs, "spec.network") {
		t.Fatalf("Validate() = %v, want an error on spec.network", errs)
	}
}

func TestValidateRejectsZeroReplicas(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Replicas = 0
	if errs := Validate(spec); !hasField(errs, "spec.replicas") {
		t.Fatalf("Validate() = %v, want an error on spec.replicas", errs)
	}
}

func TestValidateRejectsUnknownRetention(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Storage.Retention = "Bogus"
	if errs := Validate(spec); !hasField(errs, "spec.storage.retention") {
		t.Fatalf("Validate() = %v, want an error on spec.storage.retention", errs)
	}
}

func TestValidateRejectsUnparsableStorageSize(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Storage.Size = "not-a-quantity"
	if errs := Validate(spec); !hasField(errs, "spec.storage.size") {
		t.Fatalf("Validate() = %v, want an error on spec.storage.size", errs)
	}
}

func TestValidateRejectsZeroStorageSize(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Storage.Size = "0Gi"
	if errs := Validate(spec); !hasField(errs, "spec.storage.size") {
		t.Fatalf("Validate() = %v, want an error on spec.storage.size for a zero quantity", errs)
	}
}

func TestValidateRejectsMissingValidatorConfig(t *testing.T) {
	spec := baseValidatorSpec()
	spec.ValidatorConfig = nil
	if errs := Validate(spec); !hasField(errs, "spec.validatorConfig") {
		t.Fatalf("Validate() = %v, want an error on spec.validatorConfig", errs)
	}
}

func TestValidateRejectsMisplacedSubConfig(t *testing.T) {
	spec := baseValidatorSpec()
	spec.HorizonConfig = &HorizonConfig{DatabaseSecretRef: "db", StellarCoreURL: "http://core:11626"}
	if errs := Validate(spec); !hasField(errs, "spec.horizonConfig") {
		t.Fatalf("Validate() = %v, want an error on spec.horizonConfig (MisplacedSubConfig)", errs)
	}
}

func TestValidateRejectsEmptySeedSecretRef(t *testing.T) {
	spec := baseValidatorSpec()
	spec.ValidatorConfig.SeedSecretRef = ""
	if errs := Validate(spec); !hasField(errs, "spec.validatorConfig.seedSecretRef") {
		t.Fatalf("Validate() = %v, want an error on spec.validatorConfig.seedSecretRef", errs)
	}
}

func TestValidateRejectsZeroQuorumThreshold(t *testing.T) {
	spec := baseValidatorSpec()
	spec.ValidatorConfig.QuorumSet.Threshold = 0
	if errs := Validate(spec); !hasField(errs, "spec.validatorConfig.quorumSet.threshold") {
		t.Fatalf("Validate() = %v, want an error on spec.validatorConfig.quorumSet.threshold", errs)
	}
}

func TestValidateRejectsEmptyQuorumValidators(t *testing.T) {
	spec := baseValidatorSpec()
	spec.ValidatorConfig.QuorumSet.Validators = nil
	if errs := Validate(spec); !hasField(errs, "spec.validatorConfig.quorumSet.validators") {
		t.Fatalf("Validate() = %v, want an error on spec.validatorConfig.quorumSet.validators", errs)
	}
}

func TestValidateRejectsEmptyHorizonCoreURL(t *testing.T) {
	spec := &StellarNodeSpec{
		NodeType:      NodeTypeHorizon,
		Network:       NetworkTestnet,
		Version:       "stellar/horizon:21.0.0",
		Replicas:      1,
		HorizonConfig: &HorizonConfig{DatabaseSecretRef: "db"},
	}
	if errs := Validate(spec); !hasField(errs, "spec.horizonConfig.stellarCoreUrl") {
		t.Fatalf("Validate() = %v, want an error on spec.horizonConfig.stellarCoreUrl", errs)
	}
}

func TestValidateRejectsLimitBelowRequest(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Resources = &ResourceRequirements{
		Requests: corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("500m")},
		Limits:   corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("250m")},
	}
	if errs := Validate(spec); !hasField(errs, "spec.resources.limits.cpu") {
		t.Fatalf("Validate() = %v, want an error on spec.resources.limits.cpu", errs)
	}
}

func TestValidateRejectsAmbiguousServiceMesh(t *testing.T) {
	spec := baseValidatorSpec()
	spec.ServiceMesh = &ServiceMeshSpec{Istio: &IstioMesh{}, Linkerd: &LinkerdMesh{}}
	if errs := Validate(spec); !hasField(errs, "spec.serviceMesh") {
		t.Fatalf("Validate() = %v, want an error on spec.serviceMesh (AmbiguousMesh)", errs)
	}
}

func TestValidateRejectsMissingServiceMeshSelection(t *testing.T) {
	spec := baseValidatorSpec()
	spec.ServiceMesh = &ServiceMeshSpec{}
	if errs := Validate(spec); !hasField(errs, "spec.serviceMesh") {
		t.Fatalf("Validate() = %v, want an error on spec.serviceMesh when neither istio nor linkerd is set", errs)
	}
}

func TestValidateRejectsInvalidCircuitBreaker(t *testing.T) {
	spec := baseValidatorSpec()
	spec.ServiceMesh = &ServiceMeshSpec{Istio: &IstioMesh{CircuitBreaker: &CircuitBreaker{
		ConsecutiveErrors: 0,
		TimeWindowSecs:    10,
		BaseEjectionSecs:  30,
	}}}
	if errs := Validate(spec); !hasField(errs, "spec.serviceMesh.istio.circuitBreaker.consecutiveErrors") {
		t.Fatalf("Validate() = %v, want an error on spec.serviceMesh.istio.circuitBreaker.consecutiveErrors", errs)
	}
}

func TestValidateRejectsImageReferenceWithoutTag(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Version = "stellar/stellar-core"
	if errs := Validate(spec); !hasField(errs, "spec.version") {
		t.Fatalf("Validate() = %v, want an error on spec.version for an untagged image", errs)
	}
}

func TestValidateRejectsNonSemverTag(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Version = "stellar/stellar-core:latest"
	if errs := Validate(spec); !hasField(errs, "spec.version") {
		t.Fatalf("Validate() = %v, want an error on spec.version for a non-semver tag", errs)
	}
}

func TestValidateAcceptsRegistryHostWithPort(t *testing.T) {
	spec := baseValidatorSpec()
	spec.Version = "registry.internal:5000/stellar/stellar-core:21.0.0"
	if errs := Validate(spec); hasField(errs, "spec.version") {
		t.Fatalf("Validate() = %v, want no spec.version error when the tag follows a host:port prefix", errs)
	}
}

func TestValidateImmutableAllowsUnrelatedChanges(t *testing.T) {
	oldSpec := baseValidatorSpec()
	newSpec := baseValidatorSpec()
	newSpec.Replicas = 3
	newSpec.Version = "stellar/stellar-core:21.1.0"
	if errs := ValidateImmutable(oldSpec, newSpec); len(errs) != 0 {
		t.Fatalf("ValidateImmutable() = %v, want no errors for replicas/version changes", errs)
	}
}

func TestValidateImmutableRejectsNodeTypeChange(t *testing.T) {
	oldSpec := baseValidatorSpec()
	newSpec := baseValidatorSpec()
	newSpec.NodeType = NodeTypeHorizon
	errs := ValidateImmutable(oldSpec, newSpec)
	if len(errs) != 1 || errs[0].Field != "spec.nodeType" {
		t.Fatalf("ValidateImmutable() = %v, want exactly one error on spec.nodeType", errs)
	}
}

func TestValidateImmutableRejectsStorageClassChange(t *testing.T) {
	oldSpec := baseValidatorSpec()
	newSpec := baseValidatorSpec()
	newSpec.Storage.StorageClass = "slow-hdd"
	errs := ValidateImmutable(oldSpec, newSpec)
	if len(errs) != 1 || errs[0].Field != "spec.storage.storageClass" {
		t.Fatalf("ValidateImmutable() = %v, want exactly one error on spec.storage.storageClass", errs)
	}
}

func TestValidateImmutableRejectsSeedSecretRefChange(t *testing.T) {
	oldSpec := baseValidatorSpec()
	newSpec := baseValidatorSpec()
	newSpec.ValidatorConfig.SeedSecretRef = "other-seed"
	errs := ValidateImmutable(oldSpec, newSpec)
	if len(errs) != 1 || errs[0].Field != "spec.validatorConfig.seedSecretRef" {
		t.Fatalf("ValidateImmutable() = %v, want exactly one error on spec.validatorConfig.seedSecretRef", errs)
	}
}

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
