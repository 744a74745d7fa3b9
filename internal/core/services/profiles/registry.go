package profiles

import (
	"fmt"
	"sort"
	"sync"

	"github.com/HFocko/Dashboard/internal/core/domain"
	apperrors "github.com/HFocko/Dashboard/internal/pkg/errors"
)

// Registry maps dataset identifiers to their profiles. It is filled once at
// startup and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
	aliases  map[string]string
}

// NewRegistry creates a registry holding the given profiles
func NewRegistry(profiles ...domain.Profile) (*Registry, error) {
	r := &Registry{
		profiles: make(map[string]domain.Profile),
		aliases:  make(map[string]string),
	}
	for _, p := range profiles {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a profile under its ID and optional aliases
func (r *Registry) Register(p domain.Profile, aliases ...string) error {
	if p.ID == "" {
		return fmt.Errorf("profile has no id")
	}
	if p.SourceHandle == "" {
		return fmt.Errorf("profile %s has no source handle", p.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.ID]; exists {
		return fmt.Errorf("profile %s already registered", p.ID)
	}
	r.profiles[p.ID] = p.Clone()

	for _, alias := range aliases {
		r.aliases[alias] = p.ID
	}
	return nil
}

// Get returns the profile registered under id or one of its aliases
func (r *Registry) Get(id string) (domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, exists := r.aliases[id]; exists {
		id = target
	}

	p, exists := r.profiles[id]
	if !exists {
		return domain.Profile{}, apperrors.UnknownDataset(id).
			WithDetails("available", r.idsLocked())
	}
	return p.Clone(), nil
}

// IDs returns the registered dataset identifiers, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

// All returns every profile ordered by ID
func (r *Registry) All() []domain.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Profile, 0, len(r.profiles))
	for _, id := range r.idsLocked() {
		out = append(out, r.profiles[id].Clone())
	}
	return out
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
