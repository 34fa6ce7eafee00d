package katachi

import "fmt"

// EntityTypeID is the dense index an entity type (archetype) resolves to when
// its definition ends. It also indexes each World's table list.
type EntityTypeID uint16

// entityType is a sealed archetype descriptor.
type entityType struct {
	components []ComponentID // declaration order, also column order
	mask       bitmask256
}

type entityTypeRegistry struct {
	names   nameTable
	types   []entityType
	pending *EntityBuilder
}

func (r *entityTypeRegistry) lookup(name string) (EntityTypeID, bool) {
	id, ok := r.names.lookup(name)
	if !ok {
		return 0, false
	}
	return EntityTypeID(id), true
}

// IsEntityTypeValid reports whether an entity type with this name is defined.
func (c *Context) IsEntityTypeValid(name string) bool {
	_, ok := c.entityTypes.lookup(name)
	return ok
}

// EntityTypeNames returns every entity type name in definition order.
func (c *Context) EntityTypeNames() []string {
	return c.entityTypes.names.list()
}

// ComponentNamesForEntityType returns the component names that make up the
// named entity type, in declaration order.
func (c *Context) ComponentNamesForEntityType(name string) ([]string, error) {
	id, ok := c.entityTypes.lookup(name)
	if !ok {
		return nil, fmt.Errorf("entity type %q: %w", name, ErrUnknownEntityType)
	}
	et := &c.entityTypes.types[id]
	out := make([]string, len(et.components))
	for i, cid := range et.components {
		out[i] = c.components.names.name(int32(cid))
	}
	return out, nil
}

// EntityTypeRename relabels an entity type without touching its entities.
func (c *Context) EntityTypeRename(name, newName string) error {
	return c.rename("entity type", &c.entityTypes.names, name, newName, ErrUnknownEntityType)
}
