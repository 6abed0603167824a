package builders

import (
	"strings"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

func validatorNode() *stellarv1alpha1.StellarNode {
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
				Retention:    stellarv1alpha1.RetentionRetain,
			},
			ValidatorConfig: &stellarv1alpha1.ValidatorConfig{
				SeedSecretRef: "core-1-seed",
				QuorumSet:     stellarv1alpha1.QuorumSet{Threshold: 2, Validators: []string{"A", "B", "C"}},
			},
		},
	}
}

func horizonNode() *stellarv1alpha1.StellarNode {
	return &stellarv1alpha1.StellarNode{
		ObjectMeta: metav1.ObjectMeta{Name: "horizon-1", Namespace: "stellar", UID: "uid-2"},
		Spec: stellarv1alpha1.StellarNodeSpec{
			NodeType: stellarv1alpha1.NodeTypeHorizon,
			Network:  stellarv1alpha1.NetworkMainnet,
			Version:  "stellar/horizon:21.0.0",
			Replicas: 3,
			HorizonConfig: &stellarv1alpha1.HorizonConfig{
				DatabaseSecretRef: "horizon-1-db",
				StellarCoreURL:    "http://core-1-svc:11626",
				EnableIngest:      true,
			},
		},
	}
}

func TestWorkloadKindByNodeType(t *testing.T) {
	if _, ok := Workload(validatorNode()).(*appsv1.StatefulSet); !ok {
		t.Fatalf("Workload(validator) did not return a StatefulSet")
	}
	if _, ok := Workload(horizonNode()).(*appsv1.Deployment); !ok {
		t.Fatalf("Workload(horizon) did not return a Deployment")
	}
}

func TestStatefulWorkloadUsesVolumeClaimTemplateNotSharedVolume(t *testing.T) {
	sts, ok := Workload(validatorNode()).(*appsv1.StatefulSet)
	if !ok {
		t.Fatalf("Workload(validator) did not return a StatefulSet")
	}
	if len(sts.Spec.VolumeClaimTemplates) != 1 {
		t.Fatalf("VolumeClaimTemplates = %d, want 1 so each replica gets its own claim", len(sts.Spec.VolumeClaimTemplates))
	}
	if sts.Spec.VolumeClaimTemplates[0].Name != dataVolumeName {
		t.Fatalf("VolumeClaimTemplates[0].Name = %q, want %q", sts.Spec.VolumeClaimTemplates[0].Name, dataVolumeName)
	}
	for _, v := range sts.Spec.Template.Spec.Volumes {
		if v.Name == dataVolumeName {
			t.Fatalf("pod template declares an explicit %q volume %+v, which would shadow the per-replica claim from VolumeClaimTemplates", dataVolumeName, v)
		}
	}
}

func TestNeedsStorage(t *testing.T) {
	if !NeedsStorage(validatorNode()) {
		t.Fatalf("NeedsStorage(validator with StorageSpec) = false, want true")
	}
	if NeedsStorage(horizonNode()) {
		t.Fatalf("NeedsStorage(horizon without StorageSpec) = true, want false")
	}
}

func TestServiceTopologyByNodeType(t *testing.T) {
	validatorSvc := Service(validatorNode())
	if validatorSvc.Spec.ClusterIP != corev1.ClusterIPNone {
		t.Fatalf("Service(validator).Spec.ClusterIP = %q, want headless", validatorSvc.Spec.ClusterIP)
	}

	horizonSvc := Service(horizonNode())
	if horizonSvc.Spec.ClusterIP == corev1.ClusterIPNone {
		t.Fatalf("Service(horizon) is headless, want a normal ClusterIP service")
	}
}

func TestConfigRendersNodeTypeSpecificSettings(t *testing.T) {
	cm := Config(validatorNode())
	blob := cm.Data["stellar-core.cfg"]
	if !strings.Contains(blob, "NODE_IS_VALIDATOR=true") {
		t.Fatalf("Config(validator) blob = %q, want NODE_IS_VALIDATOR=true", blob)
	}
	if !strings.Contains(blob, `QUORUM_THRESHOLD=2`) {
		t.Fatalf("Config(validator) blob = %q, want the configured quorum threshold", blob)
	}

	horizonBlob := Config(horizonNode()).Data["stellar-core.cfg"]
	if !strings.Contains(horizonBlob, `STELLAR_CORE_URL="http://core-1-svc:11626"`) {
		t.Fatalf("Config(horizon) blob = %q, want the configured core URL", horizonBlob)
	}
}

func TestNamesAreStableAndDeterministic(t *testing.T) {
	node := validatorNode()
	if got, want := WorkloadName(node), "core-1"; got != want {
		t.Fatalf("WorkloadName() = %q, want %q", got, want)
	}
	if got, want := ServiceName(node), "core-1-svc"; got != want {
		t.Fatalf("ServiceName() = %q, want %q", got, want)
	}
	if got1, got2 := ConfigName(node), ConfigName(node); got1 != got2 {
		t.Fatalf("ConfigName() not deterministic: %q != %q", got1, got2)
	}
}

func TestMeshPoliciesEmptyWithoutServiceMesh(t *testing.T) {
	node := validatorNode()
	if got := MeshPolicies(node); len(got) != 0 {
		t.Fatalf("MeshPolicies(no ServiceMesh) = %d policies, want 0", len(got))
	}
}

func TestMeshPoliciesIstio(t *testing.T) {
	node := validatorNode()
	node.Spec.ServiceMesh = &stellarv1alpha1.ServiceMeshSpec{
		Istio: &stellarv1alpha1.IstioMesh{
			CircuitBreaker: &stellarv1alpha1.CircuitBreaker{
				ConsecutiveErrors: 5,
				TimeWindowSecs:    30,
				BaseEjectionSecs:  30,
			},
		},
	}
	policies := MeshPolicies(node)
	if len(policies) != 4 {
		t.Fatalf("MeshPolicies(istio) = %d policies, want exactly 4", len(policies))
	}
	names := MeshPolicyNames(node)
	for i, p := range policies {
		if p.GetNamespace() != node.Namespace {
			t.Fatalf("mesh policy %s namespace = %q, want %q", p.GetName(), p.GetNamespace(), node.Namespace)
		}
		if p.GetName() != names[i] {
			t.Fatalf("mesh policy[%d] name = %q, want %q", i, p.GetName(), names[i])
		}
	}
}

func TestOwnerReferenceMatchesNode(t *testing.T) {
	node := validatorNode()
	ref := OwnerReference(node)
	if ref.Name != node.Name || ref.UID != node.UID {
		t.Fatalf("OwnerReference() = %+v, want a reference to %s/%s", ref, node.Name, node.UID)
	}
	if ref.Controller == nil || !*ref.Controller {
		t.Fatalf("OwnerReference().Controller = %v, want true", ref.Controller)
	}
}
