package behavior

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps plugin keys to behavior factories. Unknown keys resolve to
// the no-op Default behavior.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a Registry holding every built-in species plugin.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for key, f := range map[string]Factory{
		"ant":           NewAnt,
		"workerant":     NewAnt,
		"queenant":      NewQueenAnt,
		"hellhound":     NewHellhound,
		"ogrelord":      NewOgreLord,
		"piratecaptain": NewPirateCaptain,
		"skeletonking":  NewSkeletonKing,
		"forestdragon":  NewForestDragon,
		"santa":         NewSanta,
	} {
		if err := r.Register(key, f); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds factory under key.
//
// Postcondition: Returns an error if key is empty or already registered.
func (r *Registry) Register(key string, factory Factory) error {
	if key == "" {
		return fmt.Errorf("behavior.Registry.Register: key must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("behavior.Registry.Register %q: factory must not be nil", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[key]; dup {
		return fmt.Errorf("behavior %q already registered", key)
	}
	r.factories[key] = factory
	return nil
}

// Resolve returns the factory for key, falling back to NewDefault.
func (r *Registry) Resolve(key string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.factories[key]; ok {
		return f
	}
	return NewDefault
}

// Has reports whether key has a registered factory.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[key]
	return ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
