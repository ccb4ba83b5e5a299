package mob

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an instance is not registered.
var ErrNotFound = errors.New("mob not found")

// Manager tracks all live mobs by instance and by region.
// All methods are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	templates  map[string]*Template
	instances  map[string]*Mob
	regionSets map[RegionID]map[string]bool
}

// NewManager creates an empty Manager over the given templates.
//
// Precondition: templates may be nil (every Spawn then fails with ErrUnknownSpecies).
func NewManager(templates map[string]*Template) *Manager {
	if templates == nil {
		templates = make(map[string]*Template)
	}
	return &Manager{
		templates:  templates,
		instances:  make(map[string]*Mob),
		regionSets: make(map[RegionID]map[string]bool),
	}
}

// Template returns the template for key.
func (m *Manager) Template(key string) (*Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[key]
	return t, ok
}

// Spawn creates a new mob of species key at pos and registers it.
//
// Postcondition: Returns a new Mob with a unique instance id, or an error
// wrapping ErrUnknownSpecies.
func (m *Manager) Spawn(key string, pos Position) (*Mob, error) {
	tmpl, ok := m.Template(key)
	if !ok {
		return nil, fmt.Errorf("mob.Manager.Spawn %q: %w", key, ErrUnknownSpecies)
	}

	mb := NewMob(uuid.NewString(), tmpl, pos)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[mb.Instance()] = mb
	m.addToRegionLocked(pos.Region(), mb.Instance())
	return mb, nil
}

// Remove deletes an instance.
//
// Postcondition: Returns an error wrapping ErrNotFound if the instance is absent.
func (m *Manager) Remove(instance string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mb, ok := m.instances[instance]
	if !ok {
		return fmt.Errorf("mob instance %q: %w", instance, ErrNotFound)
	}
	m.removeFromRegionLocked(mb.Position().Region(), instance)
	delete(m.instances, instance)
	return nil
}

// Get returns the mob with the given instance.
func (m *Manager) Get(instance string) (*Mob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mb, ok := m.instances[instance]
	return mb, ok
}

// Move relocates a mob and updates the region index.
//
// Postcondition: mob.Position() equals to.
func (m *Manager) Move(instance string, to Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mb, ok := m.instances[instance]
	if !ok {
		return fmt.Errorf("mob.Manager.Move %q: %w", instance, ErrNotFound)
	}
	from := mb.Position().Region()
	mb.SetPosition(to)
	if next := to.Region(); next != from {
		m.removeFromRegionLocked(from, instance)
		m.addToRegionLocked(next, instance)
	}
	return nil
}

// InRegion returns a snapshot of the mobs in region r.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) InRegion(r RegionID) []*Mob {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.regionSets[r]
	out := make([]*Mob, 0, len(ids))
	for id := range ids {
		if mb, ok := m.instances[id]; ok {
			out = append(out, mb)
		}
	}
	return out
}

// All returns a snapshot of every live mob.
func (m *Manager) All() []*Mob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Mob, 0, len(m.instances))
	for _, mb := range m.instances {
		out = append(out, mb)
	}
	return out
}

// Count returns the number of live mobs.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

func (m *Manager) addToRegionLocked(r RegionID, instance string) {
	if m.regionSets[r] == nil {
		m.regionSets[r] = make(map[string]bool)
	}
	m.regionSets[r][instance] = true
}

func (m *Manager) removeFromRegionLocked(r RegionID, instance string) {
	if rs, ok := m.regionSets[r]; ok {
		delete(rs, instance)
		if len(rs) == 0 {
			delete(m.regionSets, r)
		}
	}
}
