package builders

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

const (
	containerNodeName    = "stellar-node"
	containerCoreName    = "stellar-core"
	syncHTTPPort         = 11626
	dataVolumeName       = "data"
	dataMountPath        = "/var/lib/stellar"
	configVolumeName     = "config"
	configMountPath      = "/etc/stellar"
)

// Workload builds the desired workload object for node: a StatefulSet with
// stable ordinal identities for Validator (quorum membership is keyed to pod
// identity) and SorobanRpc (claim-per-replica needs a stable binding), and a
// stateless Deployment for Horizon (§4.B).
//
// The return value is either *appsv1.StatefulSet or *appsv1.Deployment; callers
// type-switch on it the way internal/ensure does.
func Workload(node *stellarv1alpha1.StellarNode) client.Object {
	switch node.Spec.NodeType {
	case stellarv1alpha1.NodeTypeHorizon:
		return horizonDeployment(node)
	default:
		return statefulWorkload(node)
	}
}

func podTemplate(node *stellarv1alpha1.StellarNode) corev1.PodTemplateSpec {
	containers := []corev1.Container{nodeContainer(node)}
	if needsCaptiveCore(node) {
		containers = append(containers, captiveCoreSidecar(node))
	}

	// Validator/SorobanRpc get their "data" volume from the StatefulSet's
	// VolumeClaimTemplates (see statefulWorkload), which provisions one claim
	// per ordinal and wires the pod's volume automatically by name; the pod
	// template must not also declare an explicit Volume named "data", or it
	// would shadow the per-pod claim with a single shared one. Horizon has no
	// claim at all; it reads its database over the network.
	volumes := []corev1.Volume{
		{
			Name: configVolumeName,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: ConfigName(node)},
				},
			},
		},
	}

	return corev1.PodTemplateSpec{
		ObjectMeta: metav1.ObjectMeta{Labels: Labels(node)},
		Spec: corev1.PodSpec{
			Containers: containers,
			Volumes:    volumes,
		},
	}
}

func nodeContainer(node *stellarv1alpha1.StellarNode) corev1.Container {
	c := corev1.Container{
		Name:  containerNodeName,
		Image: node.Spec.Version,
		Ports: []corev1.ContainerPort{
			{Name: "sync", ContainerPort: syncHTTPPort},
		},
		VolumeMounts: []corev1.VolumeMount{
			{Name: configVolumeName, MountPath: configMountPath, ReadOnly: true},
		},
		Env: envForNodeType(node),
	}
	if node.Spec.NodeType != stellarv1alpha1.NodeTypeHorizon {
		c.VolumeMounts = append(c.VolumeMounts, corev1.VolumeMount{Name: dataVolumeName, MountPath: dataMountPath})
	}
	if res := node.Spec.Resources; res != nil {
		c.Resources = corev1.ResourceRequirements{
			Requests: res.Requests,
			Limits:   res.Limits,
		}
	}
	return c
}

func envForNodeType(node *stellarv1alpha1.StellarNode) []corev1.EnvVar {
	env := []corev1.EnvVar{
		{Name: "STELLAR_NETWORK", Value: string(node.Spec.Network)},
	}
	switch node.Spec.NodeType {
	case stellarv1alpha1.NodeTypeValidator:
		env = append(env, corev1.EnvVar{
			Name: "STELLAR_SEED",
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: node.Spec.ValidatorConfig.SeedSecretRef},
					Key:                  "seed",
				},
			},
		})
	case stellarv1alpha1.NodeTypeHorizon:
		env = append(env,
			corev1.EnvVar{Name: "STELLAR_CORE_URL", Value: node.Spec.HorizonConfig.StellarCoreURL},
			secretEnvVar("DATABASE_URL", node.Spec.HorizonConfig.DatabaseSecretRef, "url"),
		)
	case stellarv1alpha1.NodeTypeSorobanRpc:
		env = append(env,
			corev1.EnvVar{Name: "STELLAR_CORE_URL", Value: node.Spec.SorobanConfig.StellarCoreURL},
			secretEnvVar("DATABASE_URL", node.Spec.SorobanConfig.DatabaseSecretRef, "url"),
		)
	}
	return env
}

func secretEnvVar(name, secretName, key string) corev1.EnvVar {
	return corev1.EnvVar{
		Name: name,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: secretName},
				Key:                  key,
			},
		},
	}
}

func needsCaptiveCore(node *stellarv1alpha1.StellarNode) bool {
	switch node.Spec.NodeType {
	case stellarv1alpha1.NodeTypeHorizon:
		return node.Spec.HorizonConfig != nil && node.Spec.HorizonConfig.CaptiveCore
	case stellarv1alpha1.NodeTypeSorobanRpc:
		return node.Spec.SorobanConfig != nil && node.Spec.SorobanConfig.CaptiveCore
	default:
		return false
	}
}

func captiveCoreSidecar(node *stellarv1alpha1.StellarNode) corev1.Container {
	return corev1.Container{
		Name:  containerCoreName,
		Image: node.Spec.Version,
		Args:  []string{"--captive-core"},
		VolumeMounts: []corev1.VolumeMount{
			{Name: dataVolumeName, MountPath: dataMountPath},
			{Name: configVolumeName, MountPath: configMountPath, ReadOnly: true},
		},
	}
}

// statefulWorkload builds the ordered, stable-identity StatefulSet used for
// Validator and SorobanRpc nodes.
func statefulWorkload(node *stellarv1alpha1.StellarNode) *appsv1.StatefulSet {
	replicas := node.Spec.Replicas
	return &appsv1.StatefulSet{
		ObjectMeta: ObjectMeta(node, WorkloadName(node)),
		Spec: appsv1.StatefulSetSpec{
			Replicas:    &replicas,
			ServiceName: ServiceName(node),
			Selector:    &metav1.LabelSelector{MatchLabels: selectorLabels(node)},
			Template:    podTemplateWithSelector(node),
			VolumeClaimTemplates: func() []corev1.PersistentVolumeClaim {
				if node.Spec.Storage == nil {
					return nil
				}
				return []corev1.PersistentVolumeClaim{storageClaimTemplate(node)}
			}(),
		},
	}
}

// horizonDeployment builds the stateless Deployment used for Horizon nodes.
func horizonDeployment(node *stellarv1alpha1.StellarNode) *appsv1.Deployment {
	replicas := node.Spec.Replicas
	return &appsv1.Deployment{
		ObjectMeta: ObjectMeta(node, WorkloadName(node)),
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: selectorLabels(node)},
			Template: podTemplateWithSelector(node),
		},
	}
}

func selectorLabels(node *stellarv1alpha1.StellarNode) map[string]string {
	return map[string]string{
		"app.kubernetes.io/managed-by": ManagedByValue,
		"stellar.stellar-k8s.io/owner": node.Name,
	}
}

func podTemplateWithSelector(node *stellarv1alpha1.StellarNode) corev1.PodTemplateSpec {
	tmpl := podTemplate(node)
	for k, v := range selectorLabels(node) {
		tmpl.ObjectMeta.Labels[k] = v
	}
	return tmpl
}
