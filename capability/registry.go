package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mediakit/mediakit/media"
)

// Registry maps capability names to their descriptors and invokers, and
// tracks registered fused implementations for adjacent stage pairs.
// Registration happens once at startup; lookups are read-only and safe
// under concurrent access from multiple in-flight pipelines.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
	fused   map[string]Invoker // key "a+b"
}

type registration struct {
	descriptor Descriptor
	invoker    Invoker
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]registration),
		fused:   make(map[string]Invoker),
	}
}

// Register adds a capability to the registry. Registering the same name
// twice or an invalid descriptor is an error.
func (r *Registry) Register(d Descriptor, inv Invoker) error {
	if d.Name == "" {
		return fmt.Errorf("capability: descriptor has empty name")
	}
	if len(d.InputKinds) == 0 {
		return fmt.Errorf("capability: %q declares no input kinds", d.Name)
	}
	for _, k := range d.InputKinds {
		if !k.Valid() {
			return fmt.Errorf("capability: %q declares unknown input kind %q", d.Name, k)
		}
	}
	if !d.OutputKind.Valid() {
		return fmt.Errorf("capability: %q declares unknown output kind %q", d.Name, d.OutputKind)
	}
	if inv == nil {
		return fmt.Errorf("capability: %q registered without invoker", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[d.Name]; exists {
		return fmt.Errorf("capability: %q already registered", d.Name)
	}
	r.entries[d.Name] = registration{descriptor: d, invoker: inv}
	return nil
}

// Lookup retrieves a capability descriptor by name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return reg.descriptor, ok
}

// Invoker retrieves the invoker registered for a capability.
func (r *Registry) Invoker(name string) (Invoker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return reg.invoker, ok
}

// IsCompatible reports whether a capability accepts the candidate kind.
func (r *Registry) IsCompatible(d Descriptor, candidate media.Kind) bool {
	return d.Accepts(candidate)
}

// List returns sorted names of all registered capabilities.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterFused registers a zero-copy fused implementation for the
// adjacent pair a→b. Both capabilities must already be registered.
func (r *Registry) RegisterFused(a, b string, inv Invoker) error {
	if inv == nil {
		return fmt.Errorf("capability: fused %s+%s registered without invoker", a, b)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[a]; !ok {
		return fmt.Errorf("capability: fused pair references unknown capability %q", a)
	}
	if _, ok := r.entries[b]; !ok {
		return fmt.Errorf("capability: fused pair references unknown capability %q", b)
	}
	key := fusedKey(a, b)
	if _, exists := r.fused[key]; exists {
		return fmt.Errorf("capability: fused %s already registered", key)
	}
	r.fused[key] = inv
	return nil
}

// FusedImplFor returns the fused implementation for the pair a→b, if one
// was registered. The scheduler consults this at dispatch time; absence
// means the pair falls back to two ordinary sequential stages.
func (r *Registry) FusedImplFor(a, b string) (Invoker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.fused[fusedKey(a, b)]
	return inv, ok
}

func fusedKey(a, b string) string { return a + "+" + b }
