package chain

import (
	"fmt"
	"sync"
)

// Spec configures one link of a chain: the registered identifier, its
// options, and whether it is switched off.
type Spec struct {
	ID       string         `yaml:"id"       json:"id"`
	Options  map[string]any `yaml:"options"  json:"options,omitempty"`
	Disabled bool           `yaml:"disabled" json:"disabled,omitempty"`
}

// Factory builds a link instance from its options.
type Factory func(options map[string]any) (Link, error)

type registryEntry struct {
	factory    Factory
	repeatable bool
}

// Registry maps link identifiers to factories. It is populated at process
// start and treated as read-only afterwards; it is injected into chain
// construction rather than consulted ambiently, so concurrent Build calls
// are safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Register adds a link factory under the given identifier.
func (r *Registry) Register(id string, factory Factory) error {
	return r.register(id, factory, false)
}

// RegisterRepeatable adds a factory whose link may appear more than once
// in a single chain.
func (r *Registry) RegisterRepeatable(id string, factory Factory) error {
	return r.register(id, factory, true)
}

func (r *Registry) register(id string, factory Factory, repeatable bool) error {
	if id == "" {
		return fmt.Errorf("link identifier cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for link %q cannot be nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("link %q is already registered", id)
	}
	r.entries[id] = registryEntry{factory: factory, repeatable: repeatable}
	return nil
}

// MustRegister is Register with a panic on error, for init-time
// population of builtin links.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve builds a single link from its spec.
func (r *Registry) Resolve(spec Spec) (Link, error) {
	r.mu.RLock()
	entry, ok := r.entries[spec.ID]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownLinkError{ID: spec.ID}
	}
	link, err := entry.factory(spec.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to build link %q: %w", spec.ID, err)
	}
	return link, nil
}

// Build constructs a chain from the given specs, skipping disabled ones.
// Duplicate identifiers are rejected unless the link was registered as
// repeatable.
func (r *Registry) Build(specs []Spec) (*Chain, error) {
	links := make([]Link, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Disabled {
			continue
		}
		r.mu.RLock()
		entry, ok := r.entries[spec.ID]
		r.mu.RUnlock()
		if !ok {
			return nil, &UnknownLinkError{ID: spec.ID}
		}
		if seen[spec.ID] && !entry.repeatable {
			return nil, fmt.Errorf("duplicate link %q in chain", spec.ID)
		}
		seen[spec.ID] = true
		link, err := entry.factory(spec.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to build link %q: %w", spec.ID, err)
		}
		links = append(links, link)
	}
	return New(links...), nil
}
