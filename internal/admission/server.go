// Package admission implements the HTTPS admission pipeline (§4.J): parsing
// AdmissionReview requests, fanning them out to the plugin sandbox, and
// aggregating verdicts. It never calls into the reconciler and does not use
// the api/v1alpha1 types: the reviewed object is handed to plugins as raw
// JSON, without being decoded.
//
// Grounded on the teacher's gomaxprocs-webhook Handler: a controller-runtime
// admission.Handler returning an admission.Response, generalized from a
// single fixed mutation into a plugin-driven pipeline.
package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"github.com/stellar-k8s/stellar-node-operator/internal/metrics"
	"github.com/stellar-k8s/stellar-node-operator/internal/registry"
	"github.com/stellar-k8s/stellar-node-operator/internal/sandbox"
)

// reviewIDAnnotation correlates an AdmissionReview with the reconciler-side
// events and logs a plugin's verdict might show up in, since the two never
// share a request ID otherwise.
const reviewIDAnnotation = "stellar.stellar-k8s.io/review-id"

// pluginInput mirrors the serialized input contract of §4.I/§6.
type pluginInput struct {
	Operation string          `json:"operation"`
	Object    json.RawMessage `json:"object"`
	OldObject json.RawMessage `json:"oldObject,omitempty"`
	Namespace string          `json:"namespace"`
	Name      string          `json:"name"`
	UserInfo  userInfo        `json:"userInfo"`
	Context   map[string]any  `json:"context"`
}

type userInfo struct {
	Username string              `json:"username"`
	UID      string              `json:"uid"`
	Groups   []string            `json:"groups"`
	Extra    map[string][]string `json:"extra"`
}

// pluginOutput mirrors the serialized output contract of §4.I/§6.
type pluginOutput struct {
	Allowed          bool              `json:"allowed"`
	Message          string            `json:"message"`
	Reason           string            `json:"reason"`
	Errors           []fieldError      `json:"errors"`
	Warnings         []string          `json:"warnings"`
	AuditAnnotations map[string]string `json:"auditAnnotations"`
	Object           json.RawMessage   `json:"object,omitempty"`
}

type fieldError struct {
	Field     string `json:"field"`
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
}

// Server executes the admission pipeline against a shared plugin Registry.
type Server struct {
	Registry *registry.Registry
	log      logr.Logger
}

// NewServer builds a Server backed by reg, logging through log.
func NewServer(reg *registry.Registry, log logr.Logger) *Server {
	return &Server{Registry: reg, log: log.WithName("admission")}
}

// ValidateHandler returns the admission.Handler to register at /validate.
func (s *Server) ValidateHandler() admission.Handler {
	return &reviewHandler{server: s, mutate: false}
}

// MutateHandler returns the admission.Handler to register at /mutate.
func (s *Server) MutateHandler() admission.Handler {
	return &reviewHandler{server: s, mutate: true}
}

type reviewHandler struct {
	server *Server
	mutate bool
}

var _ admission.Handler = &reviewHandler{}

func (h *reviewHandler) Handle(ctx context.Context, req admission.Request) admission.Response {
	operation := string(req.Operation)
	reviewID := uuid.New().String()
	log := h.server.log.WithValues("reviewID", reviewID, "namespace", req.Namespace, "name", req.Name, "operation", operation)
	log.V(1).Info("admission review received")

	input := pluginInput{
		Operation: operation,
		Object:    req.Object.Raw,
		OldObject: req.OldObject.Raw,
		Namespace: req.Namespace,
		Name:      req.Name,
		UserInfo: userInfo{
			Username: req.UserInfo.Username,
			UID:      req.UserInfo.UID,
			Groups:   req.UserInfo.Groups,
		},
		Context: map[string]any{},
	}

	aggregated, desired, err := h.server.review(ctx, input)
	if err != nil {
		log.Error(err, "admission review failed")
		return admission.Errored(http.StatusInternalServerError, err)
	}
	log.V(1).Info("admission review decided", "allowed", aggregated.Allowed)

	resp := admission.Response{
		AdmissionResponse: admissionv1.AdmissionResponse{
			Allowed: aggregated.Allowed,
			Result:  resultFor(aggregated),
		},
	}
	resp.Warnings = aggregated.Warnings
	if aggregated.AuditAnnotations == nil {
		aggregated.AuditAnnotations = map[string]string{}
	}
	aggregated.AuditAnnotations[reviewIDAnnotation] = reviewID
	resp.AuditAnnotations = aggregated.AuditAnnotations

	if h.mutate && aggregated.Allowed && desired != nil {
		patch, err := jsonpatch.CreateMergePatch(req.Object.Raw, desired)
		if err != nil {
			return admission.Errored(http.StatusInternalServerError, fmt.Errorf("synthesizing patch: %w", err))
		}
		resp.Patch = patch
		patchType := admissionv1.PatchTypeJSONPatch
		resp.PatchType = &patchType
	}

	return resp
}

func resultFor(out pluginOutput) *metav1.Status {
	if out.Allowed {
		return nil
	}
	return &metav1.Status{
		Status:  metav1.StatusFailure,
		Message: out.Message,
		Reason:  metav1.StatusReason(out.Reason),
	}
}

// review selects, executes, and aggregates every enabled plugin for
// input.Operation (§4.J steps 2-5). It returns the aggregated verdict and,
// for mutating reviews, the final desired object if any plugin rewrote it.
func (s *Server) review(ctx context.Context, input pluginInput) (pluginOutput, json.RawMessage, error) {
	plugins := s.Registry.Select(input.Operation)

	requestJSON, err := json.Marshal(input)
	if err != nil {
		return pluginOutput{}, nil, fmt.Errorf("marshaling plugin input: %w", err)
	}
	var requestMap map[string]any
	if err := json.Unmarshal(requestJSON, &requestMap); err != nil {
		return pluginOutput{}, nil, fmt.Errorf("normalizing plugin input: %w", err)
	}

	outcomes := make([]pluginOutcome, len(plugins))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range plugins {
		i, p := i, p
		g.Go(func() error {
			outcomes[i] = pluginOutcome{name: p.Descriptor.Name, output: s.runPlugin(gctx, p, requestMap, int64(len(requestJSON)))}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].name < outcomes[j].name })

	return aggregate(outcomes, input.Object)
}

func (s *Server) runPlugin(ctx context.Context, p *registry.LoadedPlugin, request map[string]any, size int64) pluginOutput {
	limits := p.Descriptor.Limits
	if limits.Timeout == 0 {
		limits = sandbox.DefaultLimits()
	}

	start := time.Now()
	result := p.Module.Eval(ctx, request, size, limits)
	metrics.PluginEvalDuration.WithLabelValues(p.Descriptor.Name).Observe(time.Since(start).Seconds())

	if result.Failure != sandbox.FailureNone {
		metrics.PluginEvalFailure.WithLabelValues(p.Descriptor.Name, string(result.Failure)).Inc()
		if p.Descriptor.FailOpen {
			return pluginOutput{Allowed: true, Warnings: []string{fmt.Sprintf("%s: %s (%s)", p.Descriptor.Name, result.Failure, result.Detail)}}
		}
		return pluginOutput{Allowed: false, Reason: string(result.Failure), Message: result.Detail}
	}

	out, err := decodeOutput(result.Output)
	if err != nil {
		if p.Descriptor.FailOpen {
			return pluginOutput{Allowed: true, Warnings: []string{fmt.Sprintf("%s: malformed output: %v", p.Descriptor.Name, err)}}
		}
		return pluginOutput{Allowed: false, Reason: "PluginProtocol", Message: err.Error()}
	}
	return out
}

func decodeOutput(raw map[string]interface{}) (pluginOutput, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return pluginOutput{}, err
	}
	var out pluginOutput
	if err := json.Unmarshal(buf, &out); err != nil {
		return pluginOutput{}, err
	}
	return out, nil
}

// pluginOutcome pairs a plugin's name with its execution result, ordered
// lexicographically by name before aggregation (§5).
type pluginOutcome struct {
	name   string
	output pluginOutput
}

func aggregate(outcomes []pluginOutcome, originalObject json.RawMessage) (pluginOutput, json.RawMessage, error) {
	agg := pluginOutput{Allowed: true, AuditAnnotations: map[string]string{}}
	desired := originalObject

	for _, o := range outcomes {
		if !o.output.Allowed {
			agg.Allowed = false
		}
		if o.output.Message != "" {
			if agg.Message == "" {
				agg.Message = o.output.Message
			}
		}
		agg.Errors = append(agg.Errors, o.output.Errors...)
		agg.Warnings = append(agg.Warnings, o.output.Warnings...)
		for k, v := range o.output.AuditAnnotations {
			if _, exists := agg.AuditAnnotations[k]; !exists {
				agg.AuditAnnotations[k] = v
			}
		}
		if len(o.output.Object) > 0 {
			desired = o.output.Object
		}
	}

	return agg, desired, nil
}
