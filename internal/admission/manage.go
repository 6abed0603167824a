package admission

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/healthz"

	"github.com/stellar-k8s/stellar-node-operator/internal/registry"
	"github.com/stellar-k8s/stellar-node-operator/internal/sandbox"
)

// pluginSummary is the list/get representation of a registered plugin (§6:
// "GET /plugins returns name, version, operations, enabled").
type pluginSummary struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Hash       string   `json:"sha256"`
	Operations []string `json:"operations"`
	Enabled    bool     `json:"enabled"`
	FailOpen   bool     `json:"failOpen"`
}

func summarize(d registry.Descriptor) pluginSummary {
	return pluginSummary{
		Name:       d.Name,
		Version:    d.Version,
		Hash:       d.DeclaredHash,
		Operations: d.Operations,
		Enabled:    d.Enabled,
		FailOpen:   d.FailOpen,
	}
}

// pluginUpload is the POST /plugins request body (§6). Bytecode is carried
// inline as base64 CEL source; ConfigMap/Secret/URL sourcing is left to the
// caller, which is expected to resolve those references before posting here.
type pluginUpload struct {
	Name           string        `json:"name"`
	Version        string        `json:"version"`
	Sha256         string        `json:"sha256"`
	Operations     []string      `json:"operations"`
	Enabled        bool          `json:"enabled"`
	FailOpen       bool          `json:"failOpen"`
	BytecodeBase64 string        `json:"bytecodeBase64"`
	Limits         *pluginLimits `json:"limits,omitempty"`
	Overwrite      bool          `json:"overwrite"`
}

type pluginLimits struct {
	MemoryBytes  int64 `json:"memoryBytes"`
	Instructions int64 `json:"instructions"`
	TimeoutMs    int64 `json:"timeoutMs"`
}

// ManagementHandler serves the plugin lifecycle API of §6: listing loaded
// plugins, loading a new one, and unloading by name. It is registered as a
// plain http.Handler on the same webhook.Server as the admission handlers,
// mirroring the teacher's hookServer.Register pattern for arbitrary paths.
func (s *Server) ManagementHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/plugins" && r.Method == http.MethodGet:
			s.listPlugins(w, r)
		case r.URL.Path == "/plugins" && r.Method == http.MethodPost:
			s.loadPlugin(w, r)
		case strings.HasPrefix(r.URL.Path, "/plugins/") && r.Method == http.MethodDelete:
			s.unloadPlugin(w, r, strings.TrimPrefix(r.URL.Path, "/plugins/"))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
}

func (s *Server) listPlugins(w http.ResponseWriter, _ *http.Request) {
	descriptors := s.Registry.List()
	out := make([]pluginSummary, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, summarize(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) loadPlugin(w http.ResponseWriter, r *http.Request) {
	var upload pluginUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		http.Error(w, "malformed request body: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if upload.Name == "" || upload.BytecodeBase64 == "" || len(upload.Operations) == 0 {
		http.Error(w, "name, bytecodeBase64, and operations are required", http.StatusUnprocessableEntity)
		return
	}

	source, err := base64.StdEncoding.DecodeString(upload.BytecodeBase64)
	if err != nil {
		http.Error(w, "bytecodeBase64 is not valid base64: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	descriptor := registry.Descriptor{
		Name:         upload.Name,
		Version:      upload.Version,
		DeclaredHash: upload.Sha256,
		Operations:   upload.Operations,
		Enabled:      upload.Enabled,
		FailOpen:     upload.FailOpen,
		Limits:       sandbox.DefaultLimits(),
	}
	if upload.Limits != nil {
		descriptor.Limits = limitsFrom(*upload.Limits)
	}

	if err := s.Registry.Load(descriptor, source, upload.Overwrite); err != nil {
		switch err {
		case registry.ErrDuplicate:
			http.Error(w, err.Error(), http.StatusConflict)
		case registry.ErrIntegrity:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		}
		return
	}

	loaded, _ := s.Registry.Get(upload.Name)
	writeJSON(w, http.StatusCreated, summarize(loaded.Descriptor))
}

func (s *Server) unloadPlugin(w http.ResponseWriter, _ *http.Request, name string) {
	if err := s.Registry.Unload(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func limitsFrom(l pluginLimits) sandbox.Limits {
	limits := sandbox.DefaultLimits()
	if l.MemoryBytes > 0 {
		limits.MemoryBytes = l.MemoryBytes
	}
	if l.Instructions > 0 {
		limits.Instructions = uint64(l.Instructions)
	}
	if l.TimeoutMs > 0 {
		limits.Timeout = time.Duration(l.TimeoutMs) * time.Millisecond
	}
	return limits
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ReadyCheck reports ready once at least one plugin is loaded (§6: "/ready
// returns 200 once at least one plugin is loaded"), wired into the manager
// via mgr.AddReadyzCheck the same way the teacher wires healthz.Ping.
func (s *Server) ReadyCheck() healthz.Checker {
	return func(_ *http.Request) error {
		if len(s.Registry.List()) == 0 {
			return errNoPluginsLoaded
		}
		return nil
	}
}

var errNoPluginsLoaded = errors.New("no plugins loaded")
