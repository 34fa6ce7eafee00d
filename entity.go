package katachi

import "fmt"

// Entity is a handle to one row of one archetype table in the world that
// issued it. The handle's type field carries that world's domain tag, so an
// entity presented to a different world is rejected instead of aliasing one
// of its rows.
type Entity struct {
	handle Handle
}

// InvalidEntity never names a live entity.
var InvalidEntity = Entity{}

// EntityFromHandle rebuilds an Entity from a raw handle, e.g. one that was
// round-tripped through a scripting layer.
func EntityFromHandle(h Handle) Entity { return Entity{handle: h} }

// Handle returns the underlying generational handle.
func (e Entity) Handle() Handle { return e.handle }

// IsZero reports whether e is InvalidEntity.
func (e Entity) IsZero() bool { return e.handle == InvalidHandle }

func (e Entity) String() string {
	return fmt.Sprintf("entity(%d.%d@%d)", e.handle.Index(), e.handle.Generation(), e.handle.Type())
}
