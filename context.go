// Package katachi is a runtime-typed entity component system: component
// layouts, entity types and systems are defined by name at run time and
// stored in packed per-archetype columns addressed through generational
// handles.
package katachi

import (
	"fmt"

	"go.uber.org/zap"
)

// Context is one ECS session: the component, entity type and system
// registries, every world made from them and the stack that selects the
// current world. The convenience methods on Context (MakeEntity, RunSystems,
// ...) all act on the world at the top of the stack.
//
// The default world sits at the bottom of the stack for the whole life of
// the Context and can never be popped or destroyed.
type Context struct {
	log             *zap.Logger
	components      componentRegistry
	entityTypes     entityTypeRegistry
	systems         systemRegistry
	stack           []*World
	worlds          map[uint16]*World // by handle domain tag, nil once destroyed
	nextTag         uint16
	initialCapacity int
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for definition failures and contract
// violations. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Context) {
		if log != nil {
			c.log = log
		}
	}
}

// WithInitialCapacity sets how many entities each new world preallocates
// handle slots for.
func WithInitialCapacity(n int) Option {
	return func(c *Context) {
		if n >= 0 {
			c.initialCapacity = n
		}
	}
}

// NewContext returns an empty session with its default world pushed.
func NewContext(opts ...Option) *Context {
	c := &Context{
		log:             zap.NewNop(),
		components:      componentRegistry{names: newNameTable()},
		entityTypes:     entityTypeRegistry{names: newNameTable()},
		systems:         systemRegistry{names: newNameTable()},
		worlds:          make(map[uint16]*World, 4),
		initialCapacity: 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stack = append(c.stack, c.MakeWorld())
	return c
}

// Logger returns the session logger.
func (c *Context) Logger() *zap.Logger { return c.log }

// rejected logs a discarded definition and wraps err with its name.
func (c *Context) rejected(kind, name string, err error) error {
	c.log.Warn("definition rejected", zap.String("kind", kind), zap.String("name", name), zap.Error(err))
	if name == "" {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return fmt.Errorf("%s %q: %w", kind, name, err)
}

func (c *Context) rename(kind string, names *nameTable, name, newName string, unknown error) error {
	id, ok := names.lookup(name)
	if !ok {
		return c.rejected(kind, name, unknown)
	}
	if newName == "" {
		return c.rejected(kind, name, ErrMissingName)
	}
	if name == newName {
		return nil
	}
	if _, dup := names.lookup(newName); dup {
		return c.rejected(kind, newName, ErrDuplicateName)
	}
	names.rename(id, newName)
	c.log.Debug("renamed", zap.String("kind", kind), zap.String("from", name), zap.String("to", newName))
	return nil
}

// allocTag returns a non-zero handle domain tag no world ever had. Tags of
// destroyed worlds stay retired so their stale handles never resolve.
func (c *Context) allocTag() uint16 {
	for range 1 << 16 {
		c.nextTag++
		if c.nextTag == 0 {
			continue
		}
		if _, used := c.worlds[c.nextTag]; !used {
			return c.nextTag
		}
	}
	panic("katachi: world domain tags exhausted")
}

// MakeWorld creates an empty world. It is not selected until pushed.
func (c *Context) MakeWorld() *World {
	w := newWorld(c, c.allocTag())
	c.worlds[w.tag] = w
	w.log.Debug("world created")
	return w
}

// DestroyWorld runs the cleanup of every entity left in w and releases its
// storage. Every handle w issued becomes invalid. A world that is anywhere
// on the stack cannot be destroyed.
func (c *Context) DestroyWorld(w *World) error {
	if w == nil || w.ctx != c || w.destroyed {
		return ErrWorldDestroyed
	}
	for _, s := range c.stack {
		if s == w {
			return ErrWorldInUse
		}
	}
	if w.running {
		w.log.Error("contract violation: world destroyed during RunSystems")
		return ErrIterating
	}
	w.destroy()
	c.worlds[w.tag] = nil
	w.log.Debug("world destroyed")
	return nil
}

// PushWorld makes w the current world.
func (c *Context) PushWorld(w *World) error {
	if w == nil || w.ctx != c || w.destroyed {
		c.log.Error("push of a destroyed or foreign world")
		return ErrWorldDestroyed
	}
	c.stack = append(c.stack, w)
	return nil
}

// PopWorld removes the current world from the stack and returns it. Popping
// when only the default world is left is a caller error: the default world
// is returned and stays current.
func (c *Context) PopWorld() (*World, error) {
	n := len(c.stack)
	if n <= 1 {
		c.log.Error("contract violation: world stack is empty")
		return c.stack[0], ErrWorldStackEmpty
	}
	w := c.stack[n-1]
	c.stack[n-1] = nil
	c.stack = c.stack[:n-1]
	return w, nil
}

// PeekWorld returns the current world.
func (c *Context) PeekWorld() *World {
	return c.stack[len(c.stack)-1]
}

// DefaultWorld returns the world at the bottom of the stack.
func (c *Context) DefaultWorld() *World {
	return c.stack[0]
}
