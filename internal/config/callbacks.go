package config

import "github.com/edwinsyarief/katachi"

// Callbacks resolves the callback names used in Definitions. Component
// callbacks receive the component name as udata; system callbacks receive
// the system name.
type Callbacks interface {
	Component(name string) (katachi.ComponentFn, bool)
	Update(name string) (katachi.SystemUpdateFn, bool)
	Hook(name string) (katachi.SystemHookFn, bool)
}

// CallbackSet is an in-memory Callbacks registry for Go functions.
type CallbackSet struct {
	components map[string]katachi.ComponentFn
	updates    map[string]katachi.SystemUpdateFn
	hooks      map[string]katachi.SystemHookFn
}

// NewCallbackSet returns an empty set.
func NewCallbackSet() *CallbackSet {
	return &CallbackSet{
		components: make(map[string]katachi.ComponentFn),
		updates:    make(map[string]katachi.SystemUpdateFn),
		hooks:      make(map[string]katachi.SystemHookFn),
	}
}

// RegisterComponent binds a component initializer or cleanup to name.
func (s *CallbackSet) RegisterComponent(name string, fn katachi.ComponentFn) *CallbackSet {
	s.components[name] = fn
	return s
}

// RegisterUpdate binds a system update to name.
func (s *CallbackSet) RegisterUpdate(name string, fn katachi.SystemUpdateFn) *CallbackSet {
	s.updates[name] = fn
	return s
}

// RegisterHook binds a system pre- or post-update hook to name.
func (s *CallbackSet) RegisterHook(name string, fn katachi.SystemHookFn) *CallbackSet {
	s.hooks[name] = fn
	return s
}

// Component implements Callbacks.
func (s *CallbackSet) Component(name string) (katachi.ComponentFn, bool) {
	fn, ok := s.components[name]
	return fn, ok
}

// Update implements Callbacks.
func (s *CallbackSet) Update(name string) (katachi.SystemUpdateFn, bool) {
	fn, ok := s.updates[name]
	return fn, ok
}

// Hook implements Callbacks.
func (s *CallbackSet) Hook(name string) (katachi.SystemHookFn, bool) {
	fn, ok := s.hooks[name]
	return fn, ok
}

// Chain asks each source in order and returns the first match.
type Chain []Callbacks

// Component returns the first source's component callback named name.
func (c Chain) Component(name string) (katachi.ComponentFn, bool) {
	for _, cb := range c {
		if fn, ok := cb.Component(name); ok {
			return fn, true
		}
	}
	return nil, false
}

// Update returns the first source's system update named name.
func (c Chain) Update(name string) (katachi.SystemUpdateFn, bool) {
	for _, cb := range c {
		if fn, ok := cb.Update(name); ok {
			return fn, true
		}
	}
	return nil, false
}

// Hook returns the first source's system hook named name.
func (c Chain) Hook(name string) (katachi.SystemHookFn, bool) {
	for _, cb := range c {
		if fn, ok := cb.Hook(name); ok {
			return fn, true
		}
	}
	return nil, false
}
