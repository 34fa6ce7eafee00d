package katachi

import (
	"fmt"

	"go.uber.org/zap"
)

// ComponentBuilder holds one in-progress component definition. Obtain it
// with Context.ComponentBegin, populate it, and seal it with End.
//
//	id, err := ctx.ComponentBegin().
//		SetName("Position").
//		SetSize(8).
//		End()
type ComponentBuilder struct {
	ctx          *Context
	err          error
	done         bool
	name         string
	size         int
	initializer  ComponentFn
	initUdata    any
	cleanup      ComponentFn
	cleanupUdata any
}

// ComponentBegin opens a component definition. Only one may be open at a
// time; a nested Begin returns a builder whose End fails with
// ErrDefinitionInProgress and leaves the open definition untouched.
func (c *Context) ComponentBegin() *ComponentBuilder {
	b := &ComponentBuilder{ctx: c}
	if c.components.pending != nil {
		b.err = ErrDefinitionInProgress
		c.log.Warn("component begin while another definition is open",
			zap.String("open", c.components.pending.name))
		return b
	}
	c.components.pending = b
	return b
}

// SetName sets the unique name of the component type.
func (b *ComponentBuilder) SetName(name string) *ComponentBuilder {
	b.name = name
	return b
}

// SetSize sets the size of one component in bytes.
func (b *ComponentBuilder) SetSize(size int) *ComponentBuilder {
	b.size = size
	return b
}

// SetOptionalInitializer sets the callback run on every freshly zeroed slot
// when an entity gains this component.
func (b *ComponentBuilder) SetOptionalInitializer(fn ComponentFn, udata any) *ComponentBuilder {
	b.initializer = fn
	b.initUdata = udata
	return b
}

// SetOptionalCleanup sets the callback run before a slot of this component
// is discarded.
func (b *ComponentBuilder) SetOptionalCleanup(fn ComponentFn, udata any) *ComponentBuilder {
	b.cleanup = fn
	b.cleanupUdata = udata
	return b
}

// End validates and seals the definition.
func (b *ComponentBuilder) End() (ComponentID, error) {
	if b.done {
		return 0, ErrNoDefinition
	}
	b.done = true
	if b.err != nil {
		return 0, b.err
	}
	r := &b.ctx.components
	r.pending = nil

	var err error
	switch {
	case b.name == "":
		err = ErrMissingName
	case b.size <= 0:
		err = ErrZeroSize
	case r.names.len() >= MaxComponentTypes:
		err = ErrTooManyComponents
	default:
		if _, dup := r.names.lookup(b.name); dup {
			err = ErrDuplicateName
		}
	}
	if err != nil {
		return 0, b.ctx.rejected("component", b.name, err)
	}

	id := ComponentID(r.names.insert(b.name))
	r.types = append(r.types, componentType{
		size:         b.size,
		initializer:  b.initializer,
		initUdata:    b.initUdata,
		cleanup:      b.cleanup,
		cleanupUdata: b.cleanupUdata,
	})
	b.ctx.log.Debug("component defined", zap.String("component", b.name), zap.Int("size", b.size))
	return id, nil
}

// EntityBuilder holds one in-progress entity type definition.
type EntityBuilder struct {
	ctx        *Context
	err        error
	done       bool
	name       string
	components []string
}

// EntityBegin opens an entity type definition.
func (c *Context) EntityBegin() *EntityBuilder {
	b := &EntityBuilder{ctx: c}
	if c.entityTypes.pending != nil {
		b.err = ErrDefinitionInProgress
		c.log.Warn("entity begin while another definition is open",
			zap.String("open", c.entityTypes.pending.name))
		return b
	}
	c.entityTypes.pending = b
	return b
}

// SetName sets the name passed to MakeEntity.
func (b *EntityBuilder) SetName(name string) *EntityBuilder {
	b.name = name
	return b
}

// AddComponent appends a component type to the archetype. Names are resolved
// when the definition ends; repeats are ignored.
func (b *EntityBuilder) AddComponent(component string) *EntityBuilder {
	b.components = append(b.components, component)
	return b
}

// End validates and seals the definition.
func (b *EntityBuilder) End() (EntityTypeID, error) {
	if b.done {
		return 0, ErrNoDefinition
	}
	b.done = true
	if b.err != nil {
		return 0, b.err
	}
	r := &b.ctx.entityTypes
	r.pending = nil

	if b.name == "" {
		return 0, b.ctx.rejected("entity type", b.name, ErrMissingName)
	}
	if _, dup := r.names.lookup(b.name); dup {
		return 0, b.ctx.rejected("entity type", b.name, ErrDuplicateName)
	}
	var et entityType
	for _, name := range b.components {
		cid, ok := b.ctx.components.lookup(name)
		if !ok {
			return 0, b.ctx.rejected("entity type", b.name, fmt.Errorf("%w %q", ErrUnknownComponent, name))
		}
		if et.mask.has(cid) {
			continue
		}
		et.mask.set(cid)
		et.components = append(et.components, cid)
	}

	id := EntityTypeID(r.names.insert(b.name))
	r.types = append(r.types, et)
	b.ctx.log.Debug("entity type defined", zap.String("entity_type", b.name), zap.Strings("components", b.components))
	return id, nil
}

// SystemBuilder holds one in-progress system definition.
type SystemBuilder struct {
	ctx        *Context
	err        error
	done       bool
	name       string
	required   []string
	update     SystemUpdateFn
	preUpdate  SystemHookFn
	postUpdate SystemHookFn
	udata      any
}

// SystemBegin opens a system definition. Systems run in the order their
// definitions end.
func (c *Context) SystemBegin() *SystemBuilder {
	b := &SystemBuilder{ctx: c}
	if c.systems.pending != nil {
		b.err = ErrDefinitionInProgress
		c.log.Warn("system begin while another definition is open",
			zap.String("open", c.systems.pending.name))
		return b
	}
	c.systems.pending = b
	return b
}

// SetName sets the system name.
func (b *SystemBuilder) SetName(name string) *SystemBuilder {
	b.name = name
	return b
}

// SetUpdate sets the mandatory update callback.
func (b *SystemBuilder) SetUpdate(fn SystemUpdateFn) *SystemBuilder {
	b.update = fn
	return b
}

// RequireComponent adds a component to the system's query. The system runs
// on every archetype that has all required components.
func (b *SystemBuilder) RequireComponent(component string) *SystemBuilder {
	b.required = append(b.required, component)
	return b
}

// SetOptionalPreUpdate sets a callback run just before each update call.
func (b *SystemBuilder) SetOptionalPreUpdate(fn SystemHookFn) *SystemBuilder {
	b.preUpdate = fn
	return b
}

// SetOptionalPostUpdate sets a callback run just after each update call.
func (b *SystemBuilder) SetOptionalPostUpdate(fn SystemHookFn) *SystemBuilder {
	b.postUpdate = fn
	return b
}

// SetOptionalUdata sets the value handed to every callback of the system.
func (b *SystemBuilder) SetOptionalUdata(udata any) *SystemBuilder {
	b.udata = udata
	return b
}

// End validates and seals the definition.
func (b *SystemBuilder) End() (SystemID, error) {
	if b.done {
		return 0, ErrNoDefinition
	}
	b.done = true
	if b.err != nil {
		return 0, b.err
	}
	r := &b.ctx.systems
	r.pending = nil

	switch {
	case b.name == "":
		return 0, b.ctx.rejected("system", b.name, ErrMissingName)
	case b.update == nil:
		return 0, b.ctx.rejected("system", b.name, ErrMissingUpdate)
	}
	if _, dup := r.names.lookup(b.name); dup {
		return 0, b.ctx.rejected("system", b.name, ErrDuplicateName)
	}
	st := systemType{
		update:     b.update,
		preUpdate:  b.preUpdate,
		postUpdate: b.postUpdate,
		udata:      b.udata,
	}
	for _, name := range b.required {
		cid, ok := b.ctx.components.lookup(name)
		if !ok {
			return 0, b.ctx.rejected("system", b.name, fmt.Errorf("%w %q", ErrUnknownComponent, name))
		}
		if st.mask.has(cid) {
			continue
		}
		st.mask.set(cid)
		st.required = append(st.required, cid)
	}

	st.id = SystemID(r.names.insert(b.name))
	r.types = append(r.types, st)
	b.ctx.log.Debug("system defined", zap.String("system", b.name), zap.Strings("requires", b.required))
	return st.id, nil
}
