package workflow

import (
	"fmt"
	"sync"
)

// Registry maps entity kinds to their templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register validates tpl and stores it under its entity type.
func (r *Registry) Register(tpl *Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[tpl.EntityType]; exists {
		return &Error{Kind: ErrInvalidTemplate, EntityType: tpl.EntityType, Reason: "already registered"}
	}
	r.templates[tpl.EntityType] = tpl
	return nil
}

// MustRegister registers every template and panics on the first invalid one. Meant for startup.
func (r *Registry) MustRegister(tpls ...*Template) *Registry {
	for _, tpl := range tpls {
		if err := r.Register(tpl); err != nil {
			panic(fmt.Sprintf("workflow: %v", err))
		}
	}
	return r
}

// Resolve returns the template registered for kind.
func (r *Registry) Resolve(kind string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[kind]
	if !ok {
		return nil, &Error{Kind: ErrInvalidTemplate, EntityType: kind, Reason: "no template registered"}
	}
	return tpl, nil
}

// Kinds lists registered entity kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.templates))
	for kind := range r.templates {
		kinds = append(kinds, kind)
	}
	return kinds
}
