package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// NodeType is the kind of Stellar workload a StellarNode runs.
type NodeType string

const (
	NodeTypeValidator   NodeType = "Validator"
	NodeTypeHorizon     NodeType = "Horizon"
	NodeTypeSorobanRpc  NodeType = "SorobanRpc"
)

// Network is the Stellar network a node participates in.
type Network string

const (
	NetworkMainnet    Network = "Mainnet"
	NetworkTestnet    Network = "Testnet"
	NetworkFuturenet  Network = "Futurenet"
)

// RetentionPolicy governs what happens to a storage claim when its owner is deleted.
type RetentionPolicy string

const (
	RetentionRetain RetentionPolicy = "Retain"
	RetentionDelete RetentionPolicy = "Delete"
)

// Phase is the coarse lifecycle phase reported on StellarNodeStatus.
type Phase string

const (
	PhasePending  Phase = "Pending"
	PhaseCreating Phase = "Creating"
	PhaseRunning  Phase = "Running"
	PhaseFailed   Phase = "Failed"
	PhaseDeleting Phase = "Deleting"
	PhaseDeleted  Phase = "Deleted"
)

// Condition type strings recorded on StellarNodeStatus.Conditions.
const (
	ConditionReady = "Ready"
)

// Condition reasons recorded alongside the Ready condition.
const (
	ReasonAsExpected        = "AsExpected"
	ReasonValidationFailed  = "ValidationFailed"
	ReasonEnsureFailed      = "EnsureFailed"
	ReasonHealthUnknown     = "HealthUnknown"
	ReasonHealthUnhealthy   = "HealthUnhealthy"
	ReasonDeleting          = "Deleting"
	ReasonInternalError     = "InternalError"
)

// CleanupFinalizer is the token that blocks API-server deletion of a StellarNode
// until this operator has torn down every owned child.
const CleanupFinalizer = "stellar.stellar-k8s.io/cleanup"

// ResourceRequirements mirrors a narrowed corev1.ResourceRequirements: cpu/memory
// request and limit pairs only, since §3 scopes this to cpu and memory.
type ResourceRequirements struct {
	Requests corev1.ResourceList `json:"requests,omitempty"`
	Limits   corev1.ResourceList `json:"limits,omitempty"`
}

// StorageSpec declares the persistent volume claim template for nodes that need one.
type StorageSpec struct {
	// StorageClass is the name of the StorageClass to request. Immutable.
	// +immutable
	StorageClass string `json:"storageClass"`

	// Size is a resource.Quantity-parsable string, e.g. "100Gi". Immutable.
	// +immutable
	Size string `json:"size"`

	// Retention governs whether the claim survives deletion of the StellarNode.
	// +kubebuilder:validation:Enum=Retain;Delete
	Retention RetentionPolicy `json:"retention"`
}

// ValidatorConfig is required when NodeType is Validator.
type ValidatorConfig struct {
	// SeedSecretRef names a Secret in the same namespace holding the validator
	// seed. Immutable.
	// +immutable
	SeedSecretRef string `json:"seedSecretRef"`

	// QuorumSet is an opaque, validated structure describing trusted peers.
	QuorumSet QuorumSet `json:"quorumSet"`

	// EnableHistoryArchive turns on publishing a history archive for this node.
	// +optional
	EnableHistoryArchive bool `json:"enableHistoryArchive,omitempty"`
}

// QuorumSet is opaque to the operator beyond structural validation: it must have
// a positive threshold and at least one validator entry.
type QuorumSet struct {
	Threshold  int32    `json:"threshold"`
	Validators []string `json:"validators"`
}

// HorizonConfig is required when NodeType is Horizon.
type HorizonConfig struct {
	// DatabaseSecretRef names a Secret holding Horizon's database credentials.
	DatabaseSecretRef string `json:"databaseSecretRef"`

	// StellarCoreURL is the upstream stellar-core HTTP endpoint Horizon ingests from.
	StellarCoreURL string `json:"stellarCoreUrl"`

	// EnableIngest turns on the Horizon ingestion subsystem.
	// +optional
	EnableIngest bool `json:"enableIngest,omitempty"`

	// CaptiveCore, when true, runs stellar-core in "captive" mode as a sidecar
	// instead of requiring a standalone core instance.
	// +optional
	CaptiveCore bool `json:"captiveCore,omitempty"`
}

// SorobanConfig is required when NodeType is SorobanRpc.
type SorobanConfig struct {
	// DatabaseSecretRef names a Secret holding the RPC instance's database credentials.
	DatabaseSecretRef string `json:"databaseSecretRef"`

	// StellarCoreURL is the upstream stellar-core HTTP endpoint this RPC node talks to.
	StellarCoreURL string `json:"stellarCoreUrl"`

	// CaptiveCore, when true, runs stellar-core in "captive" mode as a sidecar.
	// +optional
	CaptiveCore bool `json:"captiveCore,omitempty"`
}

// CircuitBreaker configures the service-mesh ejection policy for a node's traffic.
type CircuitBreaker struct {
	// ConsecutiveErrors is the number of consecutive errors before ejection.
	// +kubebuilder:validation:Minimum=1
	ConsecutiveErrors int32 `json:"consecutiveErrors"`

	// TimeWindowSecs is the sliding window, in seconds, errors are counted over.
	// +kubebuilder:validation:Minimum=1
	TimeWindowSecs int32 `json:"timeWindowSecs"`

	// BaseEjectionSecs is the minimum ejection duration, in seconds.
	// +kubebuilder:validation:Minimum=1
	BaseEjectionSecs int32 `json:"baseEjectionSecs"`
}

// IstioMesh selects Istio as the service mesh and its circuit-breaker policy.
type IstioMesh struct {
	// +optional
	CircuitBreaker *CircuitBreaker `json:"circuitBreaker,omitempty"`
}

// LinkerdMesh selects Linkerd as the service mesh and its circuit-breaker policy.
type LinkerdMesh struct {
	// +optional
	CircuitBreaker *CircuitBreaker `json:"circuitBreaker,omitempty"`
}

// ServiceMeshSpec declares optional service-mesh policy. Exactly one of Istio or
// Linkerd must be set when ServiceMeshSpec itself is non-nil.
type ServiceMeshSpec struct {
	// +optional
	Istio *IstioMesh `json:"istio,omitempty"`

	// +optional
	Linkerd *LinkerdMesh `json:"linkerd,omitempty"`
}

// StellarNodeSpec is the user-authored, declarative desired state of a node.
type StellarNodeSpec struct {
	// NodeType selects the workload kind. Immutable.
	// +immutable
	// +kubebuilder:validation:Enum=Validator;Horizon;SorobanRpc
	NodeType NodeType `json:"nodeType"`

	// Network selects the Stellar network this node joins. Immutable.
	// +immutable
	// +kubebuilder:validation:Enum=Mainnet;Testnet;Futurenet
	Network Network `json:"network"`

	// Version is the container image reference for the node workload.
	Version string `json:"version"`

	// Replicas is the desired node count.
	// +kubebuilder:validation:Minimum=1
	Replicas int32 `json:"replicas"`

	// Resources are the cpu/memory request and limit pairs applied to the workload.
	// +optional
	Resources *ResourceRequirements `json:"resources,omitempty"`

	// Storage configures the persistent volume claim template. Required for
	// Validator and SorobanRpc; ignored for Horizon.
	// +optional
	Storage *StorageSpec `json:"storage,omitempty"`

	// ValidatorConfig is required iff NodeType is Validator.
	// +optional
	ValidatorConfig *ValidatorConfig `json:"validatorConfig,omitempty"`

	// HorizonConfig is required iff NodeType is Horizon.
	// +optional
	HorizonConfig *HorizonConfig `json:"horizonConfig,omitempty"`

	// SorobanConfig is required iff NodeType is SorobanRpc.
	// +optional
	SorobanConfig *SorobanConfig `json:"sorobanConfig,omitempty"`

	// ServiceMesh optionally enables mesh-policy children for this node.
	// +optional
	ServiceMesh *ServiceMeshSpec `json:"serviceMesh,omitempty"`
}

// StellarNodeStatus is the operator-authored observed state of a node.
type StellarNodeStatus struct {
	// ID is an identifier field of the status schema. The reconciler never
	// writes it, so it stays empty unless another client sets it.
	// +optional
	ID string `json:"id,omitempty"`

	// Phase is the coarse lifecycle phase.
	// +optional
	Phase Phase `json:"phase,omitempty"`

	// ObservedGeneration is the last spec generation this operator has reconciled.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Conditions is the set of fine-grained condition observations. The Ready
	// condition is always present once the object has been reconciled once.
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// LedgerSequence is the last-known head-ledger reported by a healthy probe.
	// +optional
	LedgerSequence int64 `json:"ledgerSequence,omitempty"`

	// Message is a freeform human-readable summary of current status.
	// +optional
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:resource:path=stellarnodes,shortName=stn,scope=Namespaced
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Type",type="string",JSONPath=".spec.nodeType"
// +kubebuilder:printcolumn:name="Network",type="string",JSONPath=".spec.network"
// +kubebuilder:printcolumn:name="Phase",type="string",JSONPath=".status.phase"
// +kubebuilder:printcolumn:name="Ledger",type="integer",JSONPath=".status.ledgerSequence"
// +kubebuilder:printcolumn:name="Ready",type="string",JSONPath=".status.conditions[?(@.type==\"Ready\")].status"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// StellarNode declares the desired lifecycle of a Stellar blockchain node workload.
type StellarNode struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   StellarNodeSpec   `json:"spec,omitempty"`
	Status StellarNodeStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// StellarNodeList is a list of StellarNode.
type StellarNodeList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []StellarNode `json:"items"`
}

