//go:build e2e
// +build e2e

package e2e

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	stellarv1alpha1 "github.com/stellar-k8s/stellar-node-operator/api/v1alpha1"
)

var _ = Describe("StellarNode reconciliation", func() {
	It("requires --namespace and --name", func() {
		Expect(flagNamespace).NotTo(BeEmpty(), "--namespace is required")
		Expect(flagName).NotTo(BeEmpty(), "--name is required")
	})

	It("exists and is retrievable", func() {
		node := &stellarv1alpha1.StellarNode{}
		key := types.NamespacedName{Namespace: flagNamespace, Name: flagName}
		Expect(mgmtClient.Get(context.Background(), key, node)).To(Succeed())
	})

	It("eventually reports Ready=True", func() {
		node := &stellarv1alpha1.StellarNode{}
		key := types.NamespacedName{Namespace: flagNamespace, Name: flagName}

		Eventually(func(g Gomega) {
			g.Expect(mgmtClient.Get(context.Background(), key, node)).To(Succeed())
			cond := getCondition(node.Status.Conditions, stellarv1alpha1.ConditionReady)
			g.Expect(cond).NotTo(BeNil(), "Ready condition not yet reported")
			g.Expect(cond.Status).To(Equal(metav1.ConditionTrue))
		}).Should(Succeed())

		Expect(node.Status.Phase).To(Equal(stellarv1alpha1.PhaseRunning))
		Expect(node.Status.ObservedGeneration).To(Equal(node.Generation))
	})

	It("owns a StatefulSet sized to spec.replicas", func() {
		node := &stellarv1alpha1.StellarNode{}
		key := types.NamespacedName{Namespace: flagNamespace, Name: flagName}
		Expect(mgmtClient.Get(context.Background(), key, node)).To(Succeed())

		sts := &appsv1.StatefulSet{}
		Expect(mgmtClient.Get(context.Background(), key, sts)).To(Succeed())
		Expect(sts.Spec.Replicas).NotTo(BeNil())
		Expect(*sts.Spec.Replicas).To(Equal(node.Spec.Replicas))

		owned := false
		for _, ref := range sts.OwnerReferences {
			if ref.UID == node.UID {
				owned = true
			}
		}
		Expect(owned).To(BeTrue(), "StatefulSet must carry an owner reference back to the StellarNode")
	})

	It("enforces immutability of spec.nodeType", func() {
		node := &stellarv1alpha1.StellarNode{}
		key := types.NamespacedName{Namespace: flagNamespace, Name: flagName}
		Expect(mgmtClient.Get(context.Background(), key, node)).To(Succeed())

		mutated := node.DeepCopy()
		if mutated.Spec.NodeType == stellarv1alpha1.NodeTypeValidator {
			mutated.Spec.NodeType = stellarv1alpha1.NodeTypeHorizon
		} else {
			mutated.Spec.NodeType = stellarv1alpha1.NodeTypeValidator
		}
		err := mgmtClient.Update(context.Background(), mutated)
		Expect(err).To(HaveOccurred())
	})
})

func getCondition(conds []metav1.Condition, t string) *metav1.Condition {
	for i := range conds {
		if string(conds[i].Type) == t {
			return &conds[i]
		}
	}
	return nil
}
