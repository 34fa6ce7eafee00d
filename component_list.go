package katachi

import "unsafe"

// ComponentList is the batch a system update receives: the columns of one
// matching archetype, restricted to the system's required components and to
// the archetype's active rows. Index i of every column and of Entities refer
// to the same entity.
//
// Reading a batch never allocates. Components and ComponentsAs return views
// straight into the archetype's columns, so writes through them update the
// entities in place.
//
// Example, for a system requiring Position and Velocity:
//
//	pos := katachi.ComponentsAs[Position](list, "Position")
//	vel := katachi.ComponentsAs[Velocity](list, "Velocity")
//	for i := range pos {
//		pos[i].X += vel[i].X
//	}
//
// A ComponentList is only meaningful during the update call it was passed to.
// Making an entity of the same archetype from inside the update may grow the
// columns; fetch the views again afterwards.
type ComponentList struct {
	world *World
	table *archetypeTable
	mask  bitmask256
	count int
}

// Len returns the number of entities in the batch.
func (l ComponentList) Len() int { return l.count }

// World returns the world being updated, for queuing delayed operations.
func (l ComponentList) World() *World { return l.world }

// EntityType returns the name of the archetype this batch comes from.
func (l ComponentList) EntityType() string {
	if l.table == nil {
		return ""
	}
	return l.world.ctx.entityTypes.names.name(int32(l.table.typeID))
}

func (l ComponentList) columnOf(component string) *TypelessArray {
	if l.table == nil {
		return nil
	}
	id, ok := l.world.ctx.components.lookup(component)
	if !ok || !l.mask.has(id) {
		return nil
	}
	return l.table.column(id)
}

// Components returns a pointer to the first element of the named column, or
// nil if the system did not require that component.
func (l ComponentList) Components(component string) unsafe.Pointer {
	col := l.columnOf(component)
	if col == nil || l.count == 0 {
		return nil
	}
	return col.Data()
}

// Bytes returns the named column as raw bytes, Len() elements long.
func (l ComponentList) Bytes(component string) []byte {
	col := l.columnOf(component)
	if col == nil {
		return nil
	}
	return col.Slice(l.count)
}

// Entities returns the owning entity of every row in the batch.
func (l ComponentList) Entities() []Entity {
	if l.table == nil {
		return nil
	}
	return l.table.entities[:l.count:l.count]
}

// ComponentsAs views the named column as a []T of Len() elements.
//
// T must be a pointer-free type whose size equals the component's registered
// size; its layout is the caller's contract with whoever defined the
// component.
//
// Parameters:
//   - l: The batch passed to the system update.
//   - component: The name of a component the system requires.
//
// Returns nil when the column is not part of the batch, the batch is empty or
// T has the wrong size.
func ComponentsAs[T any](l ComponentList, component string) []T {
	col := l.columnOf(component)
	if col == nil || l.count == 0 {
		return nil
	}
	var zero T
	if unsafe.Sizeof(zero) != uintptr(col.ElemSize()) {
		return nil
	}
	return unsafe.Slice((*T)(col.Data()), l.count)
}
