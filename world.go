package katachi

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// entitySlot holds what the world tracks per handle slot regardless of
// archetype.
type entitySlot struct {
	entityType EntityTypeID
	pending    delayedKind
	dying      bool // cleanups are running, the entity is on its way out
}

// World owns the storage of a set of entities: one archetype table per
// entity type, the handle table that addresses their rows and the queue of
// delayed structural changes. Entities are only meaningful to the world that
// made them.
//
// Every handle a world issues carries the world's 16-bit domain tag, so
// passing an entity to another world fails with ErrWorldMismatch. Tables are
// created lazily on the first entity of a type; once grown, the memory of a
// table is reused by later entities and only released by
// Context.DestroyWorld.
//
// Component pointers returned by GetComponent or ComponentAs stay valid until
// the next structural change to the same archetype (make, destroy, activate,
// deactivate or change type).
//
// A World is driven by a single goroutine; it is not safe for concurrent use.
type World struct {
	ctx       *Context
	id        uuid.UUID
	tag       uint16
	handles   *HandleTable
	slots     []entitySlot
	tables    []*archetypeTable
	delayed   []delayedOp
	events    EventBus
	resources Resources
	log       *zap.Logger
	running   bool
	destroyed bool
}

func newWorld(ctx *Context, tag uint16) *World {
	id := uuid.New()
	return &World{
		ctx:     ctx,
		id:      id,
		tag:     tag,
		handles: NewHandleTable(ctx.initialCapacity),
		slots:   make([]entitySlot, 0, ctx.initialCapacity),
		delayed: make([]delayedOp, 0, 64),
		log:     ctx.log.With(zap.Stringer("world", id)),
	}
}

// ID returns the world's unique identity.
func (w *World) ID() uuid.UUID { return w.id }

// Events returns the bus world lifecycle events are published on.
func (w *World) Events() *EventBus { return &w.events }

// Resources returns the world's singleton store.
func (w *World) Resources() *Resources { return &w.resources }

// Running reports whether the world is inside RunSystems.
func (w *World) Running() bool { return w.running }

// EntityCount returns the number of live entities, active or not.
func (w *World) EntityCount() int {
	if w.destroyed {
		return 0
	}
	return w.handles.Len()
}

// table returns the storage of entity type id, creating it on first use so
// that entity types defined after the world still get a table.
func (w *World) table(id EntityTypeID) *archetypeTable {
	if int(id) >= len(w.tables) {
		grown := make([]*archetypeTable, len(w.ctx.entityTypes.types))
		copy(grown, w.tables)
		w.tables = grown
	}
	if w.tables[id] == nil {
		w.tables[id] = newArchetypeTable(id, &w.ctx.entityTypes.types[id], &w.ctx.components, 0)
	}
	return w.tables[id]
}

func (w *World) typeName(id EntityTypeID) string {
	return w.ctx.entityTypes.names.name(int32(id))
}

// resolve validates e against this world and returns its bookkeeping.
func (w *World) resolve(e Entity) (*entitySlot, *archetypeTable, int, error) {
	if w.destroyed {
		return nil, nil, 0, ErrWorldDestroyed
	}
	if e.handle == InvalidHandle {
		return nil, nil, 0, ErrInvalidEntity
	}
	if e.handle.Type() != w.tag {
		return nil, nil, 0, ErrWorldMismatch
	}
	row, ok := w.handles.Index(e.handle)
	if !ok {
		return nil, nil, 0, ErrInvalidEntity
	}
	slot := &w.slots[e.handle.Index()]
	return slot, w.tables[slot.entityType], int(row), nil
}

// violation reports an immediate structural change requested while systems
// are running. The change is refused.
func (w *World) violation(op string, e Entity) error {
	w.log.Error("contract violation: immediate structural change during RunSystems",
		zap.String("op", op), zap.Stringer("entity", e))
	return fmt.Errorf("%s %s: %w", op, e, ErrIterating)
}

// MakeEntity instantiates an entity of the named type. Every component slot
// starts zeroed and is then passed to its component's initializer. The new
// entity is active; when called from inside a system update it is activated
// at the next flush instead, so the batch being iterated is not disturbed.
// Appending may still grow the columns of that archetype, so a system that
// makes entities of its own batch's type must re-fetch its column slices.
func (w *World) MakeEntity(entityType string) (Entity, error) {
	if w.destroyed {
		return InvalidEntity, ErrWorldDestroyed
	}
	id, ok := w.ctx.entityTypes.lookup(entityType)
	if !ok {
		return InvalidEntity, fmt.Errorf("make entity %q: %w", entityType, ErrUnknownEntityType)
	}
	return w.makeEntity(id), nil
}

func (w *World) makeEntity(id EntityTypeID) Entity {
	tbl := w.table(id)
	h := w.handles.Alloc(w.tag, uint32(tbl.len()))
	e := Entity{handle: h}
	if slot := int(h.Index()); slot >= len(w.slots) {
		w.slots = append(w.slots, make([]entitySlot, slot+1-len(w.slots))...)
	}
	w.slots[h.Index()] = entitySlot{entityType: id}

	row := tbl.push(e)
	if w.running {
		w.handles.Deactivate(h)
		w.enqueue(delayedOp{kind: delayedActivate, entity: e})
	} else {
		tbl.promote(row, w.handles)
	}

	for i, cid := range tbl.compOrder {
		ct := w.ctx.components.get(cid)
		if ct.initializer == nil {
			continue
		}
		row, ok := w.handles.Index(h)
		if !ok {
			break
		}
		ct.initializer(e, tbl.columns[i].At(int(row)), ct.initUdata)
	}
	Publish(&w.events, EntityCreated{Entity: e, Type: w.typeName(id)})
	return e
}

// DestroyEntity runs every cleanup callback of e, removes its row and frees
// its handle right away. It must not be called from inside a system update;
// use DestroyEntityDelayed there.
func (w *World) DestroyEntity(e Entity) error {
	if w.running {
		return w.violation("destroy entity", e)
	}
	return w.destroyEntity(e)
}

func (w *World) destroyEntity(e Entity) error {
	slot, tbl, _, err := w.resolve(e)
	if err != nil {
		return err
	}
	if slot.dying {
		return nil
	}
	slot.dying = true
	typeID := slot.entityType
	// Cleanups may make or destroy other entities of this archetype, which
	// moves e's row, so it is looked up again before every call.
	for i, cid := range tbl.compOrder {
		ct := w.ctx.components.get(cid)
		if ct.cleanup == nil {
			continue
		}
		row, _ := w.handles.Index(e.handle)
		ct.cleanup(e, tbl.columns[i].At(int(row)), ct.cleanupUdata)
	}
	row, _ := w.handles.Index(e.handle)
	tbl.remove(int(row), w.handles)
	w.handles.Free(e.handle)
	w.slots[e.handle.Index()] = entitySlot{}
	Publish(&w.events, EntityDestroyed{Entity: e, Type: w.typeName(typeID)})
	return nil
}

// Activate makes e take part in system updates again.
func (w *World) Activate(e Entity) error {
	if w.running {
		return w.violation("activate", e)
	}
	return w.setActive(e, true)
}

// Deactivate excludes e from system updates. It keeps its storage and can
// still be looked up.
func (w *World) Deactivate(e Entity) error {
	if w.running {
		return w.violation("deactivate", e)
	}
	return w.setActive(e, false)
}

func (w *World) setActive(e Entity, on bool) error {
	_, tbl, row, err := w.resolve(e)
	if err != nil {
		return err
	}
	if w.handles.Active(e.handle) == on {
		return nil
	}
	if on {
		tbl.promote(row, w.handles)
		w.handles.Activate(e.handle)
		Publish(&w.events, EntityActivated{Entity: e})
	} else {
		tbl.demote(row, w.handles)
		w.handles.Deactivate(e.handle)
		Publish(&w.events, EntityDeactivated{Entity: e})
	}
	return nil
}

// ChangeType moves e to another archetype. Components both types share are
// copied byte for byte, components only the old type has are cleaned up and
// components only the new type has are initialized. Component pointers into
// the old row are invalid afterwards.
//
// The move is committed before any callback runs: cleanups receive a copy
// of the dropped component's final value and already see e as its new type.
// A callback may therefore destroy or re-type e without corrupting storage;
// the remaining initializers are then skipped.
func (w *World) ChangeType(e Entity, entityType string) error {
	if w.running {
		return w.violation("change type", e)
	}
	id, ok := w.ctx.entityTypes.lookup(entityType)
	if !ok {
		return fmt.Errorf("change type to %q: %w", entityType, ErrUnknownEntityType)
	}
	return w.changeType(e, id)
}

func (w *World) changeType(e Entity, to EntityTypeID) error {
	slot, src, row, err := w.resolve(e)
	if err != nil {
		return err
	}
	if slot.dying {
		return fmt.Errorf("change type %s: %w", e, ErrInvalidEntity)
	}
	from := slot.entityType
	if from == to {
		return nil
	}
	dst := w.table(to)

	newRow := dst.push(e)
	for i, cid := range dst.compOrder {
		if col := src.column(cid); col != nil {
			memCopy(dst.columns[i].At(newRow), col.At(row), uintptr(col.ElemSize()))
		}
	}
	var dropped []droppedComponent
	for i, cid := range src.compOrder {
		if dst.mask.has(cid) {
			continue
		}
		if ct := w.ctx.components.get(cid); ct.cleanup != nil {
			buf := make([]byte, ct.size)
			memCopy(unsafe.Pointer(&buf[0]), src.columns[i].At(row), uintptr(ct.size))
			dropped = append(dropped, droppedComponent{ct: ct, data: buf})
		}
	}

	active := w.handles.Active(e.handle)
	src.remove(row, w.handles)
	w.handles.UpdateIndex(e.handle, uint32(newRow))
	if active {
		dst.promote(newRow, w.handles)
	}
	slot.entityType = to

	for _, d := range dropped {
		d.ct.cleanup(e, unsafe.Pointer(&d.data[0]), d.ct.cleanupUdata)
	}
	for i, cid := range dst.compOrder {
		if src.mask.has(cid) {
			continue
		}
		ct := w.ctx.components.get(cid)
		if ct.initializer == nil {
			continue
		}
		r, ok := w.handles.Index(e.handle)
		if !ok || w.slots[e.handle.Index()].entityType != to {
			break
		}
		ct.initializer(e, dst.columns[i].At(int(r)), ct.initUdata)
	}
	Publish(&w.events, EntityTypeChanged{Entity: e, From: w.typeName(from), To: w.typeName(to)})
	return nil
}

type droppedComponent struct {
	ct   *componentType
	data []byte
}

// IsValid reports whether e names a live entity of this world.
func (w *World) IsValid(e Entity) bool {
	_, _, _, err := w.resolve(e)
	return err == nil
}

// IsActive reports whether e is valid and takes part in system updates.
func (w *World) IsActive(e Entity) bool {
	return w.IsValid(e) && w.handles.Active(e.handle)
}

// IsType reports whether e is currently of the named entity type.
func (w *World) IsType(e Entity, entityType string) bool {
	slot, _, _, err := w.resolve(e)
	if err != nil {
		return false
	}
	id, ok := w.ctx.entityTypes.lookup(entityType)
	return ok && slot.entityType == id
}

// TypeName returns the name of e's entity type, or "" if e is not valid.
func (w *World) TypeName(e Entity) string {
	slot, _, _, err := w.resolve(e)
	if err != nil {
		return ""
	}
	return w.typeName(slot.entityType)
}

// HasComponent reports whether e's archetype has the named component.
func (w *World) HasComponent(e Entity, component string) bool {
	return w.GetComponent(e, component) != nil
}

// GetComponent returns a pointer to e's slot of the named component, or nil
// if e is not valid or has no such component. The pointer is invalidated by
// the next structural change to e's archetype.
func (w *World) GetComponent(e Entity, component string) unsafe.Pointer {
	_, tbl, row, err := w.resolve(e)
	if err != nil {
		return nil
	}
	id, ok := w.ctx.components.lookup(component)
	if !ok {
		return nil
	}
	col := tbl.column(id)
	if col == nil {
		return nil
	}
	return col.At(row)
}

// ComponentAs returns e's named component as a *T, or nil if it is missing
// or T does not have the component's size.
func ComponentAs[T any](w *World, e Entity, component string) *T {
	p := w.GetComponent(e, component)
	if p == nil {
		return nil
	}
	var zero T
	size, _ := w.ctx.ComponentSize(component)
	if unsafe.Sizeof(zero) != uintptr(size) {
		return nil
	}
	return (*T)(p)
}

// RunSystems runs every system in definition order against this world and
// then applies the delayed operations queued while they ran.
//
// For each system the optional pre-update hook runs once, then the update
// callback once per archetype whose components are a superset of the
// system's required set and which has at least one active entity, then the
// optional post-update hook. Archetypes are visited in entity type
// definition order.
//
// Batch assembly is allocation-free: active rows already form the prefix of
// every column, so a ComponentList only records the table and a count.
//
// While systems run, immediate structural changes (DestroyEntity, Activate,
// Deactivate, ChangeType) are refused with ErrIterating and logged, and a
// nested call returns ErrReentrantRun. A panic in a callback propagates to
// the caller but leaves the world usable; the queued operations are then not
// flushed until the next FlushDelayed or RunSystems.
func (w *World) RunSystems() error {
	if w.destroyed {
		return ErrWorldDestroyed
	}
	if w.running {
		w.log.Error("contract violation: RunSystems reentered from a system")
		return ErrReentrantRun
	}
	w.running = true
	func() {
		defer func() { w.running = false }()
		systems := w.ctx.systems.types
		for i := range systems {
			w.runSystem(&systems[i])
		}
	}()
	w.FlushDelayed()
	return nil
}

// destroy runs cleanups for every remaining entity and drops all storage.
func (w *World) destroy() {
	// Marked first so cleanups cannot restructure the tables being walked.
	w.destroyed = true
	for _, tbl := range w.tables {
		if tbl == nil {
			continue
		}
		for i, cid := range tbl.compOrder {
			ct := w.ctx.components.get(cid)
			if ct.cleanup == nil {
				continue
			}
			for row, e := range tbl.entities {
				ct.cleanup(e, tbl.columns[i].At(row), ct.cleanupUdata)
			}
		}
		tbl.release()
	}
	w.resources.Clear()
	w.tables = nil
	w.slots = nil
	w.delayed = nil
	w.handles = NewHandleTable(0)
}
