package model

import (
	"context"
	"sync"
)

// SpecialFactory wraps a compiled definition into a specialized one.
type SpecialFactory func(base *ModelDefinition) Definition

// Specializations maps schema names to the factory for their specialized
// definition. It is meant to be filled at startup.
type Specializations struct {
	mu        sync.RWMutex
	factories map[string]SpecialFactory
}

// DefaultSpecializations is the registry factories use unless told otherwise.
var DefaultSpecializations = NewSpecializations()

func init() {
	DefaultSpecializations.Register("user", NewUserModelDefinition)
}

func NewSpecializations() *Specializations {
	return &Specializations{factories: make(map[string]SpecialFactory)}
}

func (s *Specializations) Register(name string, f SpecialFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[name] = f
}

func (s *Specializations) Lookup(name string) (SpecialFactory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.factories[name]
	return f, ok
}

func (s *Specializations) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.factories)
}

const userFields = ":all,userCredentials[:owner]"

// UserModelDefinition fetches single users together with the owned fields of
// their credentials.
type UserModelDefinition struct {
	*ModelDefinition
}

func NewUserModelDefinition(base *ModelDefinition) Definition {
	u := &UserModelDefinition{ModelDefinition: base}
	base.variant = u
	return u
}

func (u *UserModelDefinition) Get(ctx context.Context, id string) (*Model, error) {
	return u.get(ctx, id, userFields)
}

func (u *UserModelDefinition) Clone() Definition {
	return NewUserModelDefinition(u.ModelDefinition.clone())
}

func (u *UserModelDefinition) Filter() *Filter {
	return newFilter(u.Clone())
}
