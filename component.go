package katachi

import "unsafe"

// MaxComponentTypes is the number of distinct component types a Context can
// define. It is bounded by the width of the archetype bitmask.
const MaxComponentTypes = 256

// ComponentID is the dense index a component type resolves to when its
// definition ends.
type ComponentID uint8

// ComponentFn initializes or cleans up one component slot. component points
// at the slot inside its column and must not be retained after return, the
// column may move on the next structural change.
type ComponentFn func(e Entity, component unsafe.Pointer, udata any)

// componentType is a sealed component definition.
type componentType struct {
	size         int
	initializer  ComponentFn
	initUdata    any
	cleanup      ComponentFn
	cleanupUdata any
}

type componentRegistry struct {
	names   nameTable
	types   []componentType
	pending *ComponentBuilder
}

func (r *componentRegistry) lookup(name string) (ComponentID, bool) {
	id, ok := r.names.lookup(name)
	if !ok {
		return 0, false
	}
	return ComponentID(id), true
}

func (r *componentRegistry) get(id ComponentID) *componentType {
	return &r.types[id]
}

// ComponentNames returns the name of every component type in definition
// order. The slice belongs to the caller.
func (c *Context) ComponentNames() []string {
	return c.components.names.list()
}

// ComponentSize returns the byte size of the named component type.
func (c *Context) ComponentSize(name string) (int, bool) {
	id, ok := c.components.lookup(name)
	if !ok {
		return 0, false
	}
	return c.components.get(id).size, true
}

// ComponentRename relabels a component type. Entity types and systems refer
// to components by ID, so existing entities and systems are unaffected.
func (c *Context) ComponentRename(name, newName string) error {
	return c.rename("component", &c.components.names, name, newName, ErrUnknownComponent)
}
