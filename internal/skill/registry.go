package skill

import "sync"

// Registry maps skill ids to skills. Registration order is preserved:
// insertion order is the enumeration order exposed externally. A Registry is
// constructed once at startup; there is no package-level instance.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	skills map[string]Skill
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

// Register adds a skill. Registering the same id again replaces the skill
// but keeps its original position.
func (r *Registry) Register(s Skill) {
	id := s.Describe().ID

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.skills[id]; !exists {
		r.order = append(r.order, id)
	}
	r.skills[id] = s
}

// Resolve returns the skill for id, reporting whether it was found.
func (r *Registry) Resolve(id string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[id]
	return s, ok
}

// IDs returns all registered skill ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Descriptors returns all skill descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		descriptors = append(descriptors, r.skills[id].Describe())
	}
	return descriptors
}
