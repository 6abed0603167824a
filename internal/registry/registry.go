// Package registry implements the plugin registry (§4.K): an in-memory
// {name → LoadedPlugin} map, hot-swapped via atomic pointer replacement so
// readers never block a writer (§9, "Hot-swappable plugin registry"). Every
// Load compiles its source afresh; compiled modules are not cached or shared
// by content hash. This is grounded on the
// config.loader atomic.Value snapshot-and-swap pattern from the teacher's
// gomaxprocs-webhook, generalized from a single config blob to a named
// collection of compiled plugins.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/stellar-k8s/stellar-node-operator/internal/sandbox"
)

// Descriptor is the declared metadata for a plugin, independent of where its
// bytecode (CEL source) came from (§4.K: config object, secret, direct
// upload, or URL).
type Descriptor struct {
	Name         string
	Version      string
	DeclaredHash string
	Operations   []string
	Enabled      bool
	FailOpen     bool
	Limits       sandbox.Limits
}

// LoadedPlugin pairs a Descriptor with its compiled module.
type LoadedPlugin struct {
	Descriptor Descriptor
	Module     *sandbox.Module
}

// ErrDuplicate is returned by Load when name already exists and overwrite was
// not requested.
var ErrDuplicate = fmt.Errorf("plugin already registered")

// ErrIntegrity is returned by Load when the computed content hash does not
// match the descriptor's declared hash (§4.I: "mismatch → PluginIntegrity").
var ErrIntegrity = fmt.Errorf("plugin integrity check failed")

// ErrNotFound is returned by Unload/Get when name is absent.
var ErrNotFound = fmt.Errorf("plugin not found")

type snapshot map[string]*LoadedPlugin

// Registry is safe for concurrent use: List/Get/Select take a snapshot
// reference with a single atomic load, so a reader's view of the registry
// never tears across a concurrent Load/Unload, and a reader never blocks a
// writer (§9).
type Registry struct {
	current atomic.Pointer[snapshot]

	// writeMu serializes writers; "one mutator at a time" (§4.K, §5).
	writeMu sync.Mutex

	// quarantine maps a plugin name to the reason its last Load failed the
	// integrity check or compilation, so operators can see what was rejected
	// and why (§4.I, §9).
	quarantineMu sync.Mutex
	quarantine   map[string]string
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{quarantine: make(map[string]string)}
	empty := snapshot{}
	r.current.Store(&empty)
	return r
}

// Load verifies source's content hash against descriptor.DeclaredHash,
// compiles it, and atomically inserts it into the map (§4.K). A duplicate
// name is rejected unless overwrite is true.
func (r *Registry) Load(descriptor Descriptor, source []byte, overwrite bool) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	hash := sandbox.ContentHash(source)
	if descriptor.DeclaredHash != "" && hash != descriptor.DeclaredHash {
		r.quarantinePlugin(descriptor.Name, fmt.Sprintf("declared hash %s does not match computed hash %s", descriptor.DeclaredHash, hash))
		return ErrIntegrity
	}
	descriptor.DeclaredHash = hash

	old := *r.current.Load()
	if _, exists := old[descriptor.Name]; exists && !overwrite {
		return ErrDuplicate
	}

	module, err := sandbox.Compile(string(source))
	if err != nil {
		r.quarantinePlugin(descriptor.Name, err.Error())
		return fmt.Errorf("compiling plugin %s: %w", descriptor.Name, err)
	}

	next := make(snapshot, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[descriptor.Name] = &LoadedPlugin{Descriptor: descriptor, Module: module}
	r.current.Store(&next)

	r.quarantineMu.Lock()
	delete(r.quarantine, descriptor.Name)
	r.quarantineMu.Unlock()

	return nil
}

// Unload removes name from the map.
func (r *Registry) Unload(name string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	old := *r.current.Load()
	if _, exists := old[name]; !exists {
		return ErrNotFound
	}

	next := make(snapshot, len(old))
	for k, v := range old {
		if k != name {
			next[k] = v
		}
	}
	r.current.Store(&next)
	return nil
}

// List returns a stable snapshot of every loaded plugin's descriptor.
func (r *Registry) List() []Descriptor {
	cur := *r.current.Load()
	out := make([]Descriptor, 0, len(cur))
	for _, p := range cur {
		out = append(out, p.Descriptor)
	}
	return out
}

// Get returns the loaded plugin for name, if present.
func (r *Registry) Get(name string) (*LoadedPlugin, bool) {
	cur := *r.current.Load()
	p, ok := cur[name]
	return p, ok
}

// Select returns every enabled plugin whose Operations intersect operation,
// in lexicographic order by name (§4.J, §5: "iteration order ... is
// lexicographic by plugin name for tie-breaks in aggregation").
func (r *Registry) Select(operation string) []*LoadedPlugin {
	cur := *r.current.Load()
	names := make([]string, 0, len(cur))
	for name, p := range cur {
		if !p.Descriptor.Enabled {
			continue
		}
		if containsOp(p.Descriptor.Operations, operation) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]*LoadedPlugin, 0, len(names))
	for _, name := range names {
		out = append(out, cur[name])
	}
	return out
}

// Quarantined returns the name→reason map of plugins rejected on integrity or
// compile failure; an entry stays until a later Load of that name succeeds.
func (r *Registry) Quarantined() map[string]string {
	r.quarantineMu.Lock()
	defer r.quarantineMu.Unlock()
	out := make(map[string]string, len(r.quarantine))
	for k, v := range r.quarantine {
		out[k] = v
	}
	return out
}

func (r *Registry) quarantinePlugin(name, reason string) {
	r.quarantineMu.Lock()
	defer r.quarantineMu.Unlock()
	r.quarantine[name] = reason
}

func containsOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}
