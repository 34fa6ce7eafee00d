package katachi

// archetypeTable stores every entity of one entity type: one TypelessArray
// per component plus a parallel slice of owning entities. Row i of every
// column belongs to entities[i].
//
// Active rows are kept packed at the front: rows [0, active) are active and
// rows [active, len) are inactive. A system batch is therefore always the
// prefix of each column, and toggling activation is a single row swap.
type archetypeTable struct {
	typeID    EntityTypeID
	mask      bitmask256
	compOrder []ComponentID
	columns   []*TypelessArray
	slots     [MaxComponentTypes]int16 // column index by component ID, -1 if absent
	entities  []Entity
	active    int
}

func newArchetypeTable(id EntityTypeID, et *entityType, components *componentRegistry, capacity int) *archetypeTable {
	a := &archetypeTable{
		typeID:    id,
		mask:      et.mask,
		compOrder: et.components,
		columns:   make([]*TypelessArray, len(et.components)),
		entities:  make([]Entity, 0, capacity),
	}
	for i := range a.slots {
		a.slots[i] = -1
	}
	for i, cid := range et.components {
		a.columns[i] = NewTypelessArray(components.get(cid).size, capacity)
		a.slots[cid] = int16(i)
	}
	return a
}

func (a *archetypeTable) len() int { return len(a.entities) }

// column returns the storage of component id, or nil if the archetype does
// not have it.
func (a *archetypeTable) column(id ComponentID) *TypelessArray {
	s := a.slots[id]
	if s < 0 {
		return nil
	}
	return a.columns[s]
}

// push appends a zeroed, inactive row for e and returns its index. The
// caller owns updating e's handle.
func (a *archetypeTable) push(e Entity) int {
	for _, col := range a.columns {
		col.Add()
	}
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// swapRows exchanges two rows and reroutes both handles.
func (a *archetypeTable) swapRows(i, j int, handles *HandleTable) {
	if i == j {
		return
	}
	for _, col := range a.columns {
		col.Swap(i, j)
	}
	a.entities[i], a.entities[j] = a.entities[j], a.entities[i]
	handles.UpdateIndex(a.entities[i].handle, uint32(i))
	handles.UpdateIndex(a.entities[j].handle, uint32(j))
}

// promote moves an inactive row into the active prefix and returns its new
// index.
func (a *archetypeTable) promote(row int, handles *HandleTable) int {
	dst := a.active
	a.swapRows(row, dst, handles)
	a.active++
	return dst
}

// demote moves an active row just past the active prefix and returns its new
// index.
func (a *archetypeTable) demote(row int, handles *HandleTable) int {
	dst := a.active - 1
	a.swapRows(row, dst, handles)
	a.active--
	return dst
}

// remove deletes row, keeping both partitions packed. The row that fills the
// hole has its handle rerouted.
func (a *archetypeTable) remove(row int, handles *HandleTable) {
	if row < a.active {
		row = a.demote(row, handles)
	}
	last := len(a.entities) - 1
	for _, col := range a.columns {
		col.SwapRemove(row)
	}
	if row != last {
		moved := a.entities[last]
		a.entities[row] = moved
		handles.UpdateIndex(moved.handle, uint32(row))
	}
	a.entities[last] = InvalidEntity
	a.entities = a.entities[:last]
}

// release drops all storage.
func (a *archetypeTable) release() {
	for _, col := range a.columns {
		col.Clear()
	}
	a.columns = nil
	a.entities = nil
	a.active = 0
}
