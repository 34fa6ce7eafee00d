package katachi

// Handle is an opaque generational identifier. It packs a 32-bit slot index,
// a 16-bit type discriminator and a 16-bit generation counter:
//
//	index:32 | type:16 | generation:16
//
// A handle is valid only while the slot it names still carries the same
// generation and type. Freeing a slot bumps its generation, so every copy of
// the old handle stays invalid even after the slot is reused. A slot whose
// generation is exhausted is retired instead of wrapping around, which keeps
// that guarantee forever at the cost of one dead slot per 65535 reuses.
type Handle uint64

// InvalidHandle is never returned by Alloc.
const InvalidHandle Handle = 0

const maxGeneration = 1<<16 - 1

func makeHandle(index uint32, typ, generation uint16) Handle {
	return Handle(uint64(index)<<32 | uint64(typ)<<16 | uint64(generation))
}

// Index returns the slot index encoded in the handle.
func (h Handle) Index() uint32 { return uint32(h >> 32) }

// Type returns the 16-bit discriminator encoded in the handle.
func (h Handle) Type() uint16 { return uint16(h >> 16) }

// Generation returns the generation counter encoded in the handle.
func (h Handle) Generation() uint16 { return uint16(h) }

// handleEntry is one slot of the indirection table.
type handleEntry struct {
	userIndex  uint32 // caller-owned payload, usually a row index
	typ        uint16
	generation uint16 // bumped on free, never 0, never wraps
	alive      bool
	active     bool
}

// HandleTable issues and recycles handles. Alloc and Free are O(1); freed
// slots are reused LIFO from a free list.
type HandleTable struct {
	entries  []handleEntry
	freeList []uint32
	live     int
	retired  int
}

// NewHandleTable preallocates room for capacity handles.
func NewHandleTable(capacity int) *HandleTable {
	if capacity < 0 {
		capacity = 0
	}
	return &HandleTable{
		entries:  make([]handleEntry, 0, capacity),
		freeList: make([]uint32, 0, capacity/4),
	}
}

// Alloc returns a fresh handle of the given type whose slot stores index.
func (t *HandleTable) Alloc(typ uint16, index uint32) Handle {
	var slot uint32
	if n := len(t.freeList); n > 0 {
		slot = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		slot = uint32(len(t.entries))
		t.entries = append(t.entries, handleEntry{generation: 1})
	}
	e := &t.entries[slot]
	e.userIndex = index
	e.typ = typ
	e.alive = true
	e.active = true
	t.live++
	return makeHandle(slot, typ, e.generation)
}

// entry returns the slot for h, or nil when h is not valid.
func (t *HandleTable) entry(h Handle) *handleEntry {
	slot := h.Index()
	if int(slot) >= len(t.entries) {
		return nil
	}
	e := &t.entries[slot]
	if !e.alive || e.generation != h.Generation() || e.typ != h.Type() {
		return nil
	}
	return e
}

// Valid reports whether h still names a live slot.
func (t *HandleTable) Valid(h Handle) bool {
	return t.entry(h) != nil
}

// Free releases h. It returns false and changes nothing if h is already
// invalid, so a stale handle can never release a newer occupant.
func (t *HandleTable) Free(h Handle) bool {
	e := t.entry(h)
	if e == nil {
		return false
	}
	e.alive = false
	e.active = false
	t.live--
	if e.generation == maxGeneration {
		// Reusing the slot would bring back generation 1 and with it every
		// handle ever issued for the slot.
		t.retired++
		return true
	}
	e.generation++
	t.freeList = append(t.freeList, h.Index())
	return true
}

// Index returns the payload stored for h.
func (t *HandleTable) Index(h Handle) (uint32, bool) {
	e := t.entry(h)
	if e == nil {
		return 0, false
	}
	return e.userIndex, true
}

// UpdateIndex relocates the payload for h without invalidating it.
func (t *HandleTable) UpdateIndex(h Handle, index uint32) bool {
	e := t.entry(h)
	if e == nil {
		return false
	}
	e.userIndex = index
	return true
}

// Activate sets the liveness bit of h.
func (t *HandleTable) Activate(h Handle) bool {
	e := t.entry(h)
	if e == nil {
		return false
	}
	e.active = true
	return true
}

// Deactivate clears the liveness bit of h. The handle stays valid.
func (t *HandleTable) Deactivate(h Handle) bool {
	e := t.entry(h)
	if e == nil {
		return false
	}
	e.active = false
	return true
}

// Active reports whether h is valid and its liveness bit is set.
func (t *HandleTable) Active(h Handle) bool {
	e := t.entry(h)
	return e != nil && e.active
}

// Len returns the number of live handles.
func (t *HandleTable) Len() int { return t.live }

// Cap returns the number of slots ever allocated.
func (t *HandleTable) Cap() int { return len(t.entries) }

// Retired returns the number of slots taken out of circulation because their
// generation ran out.
func (t *HandleTable) Retired() int { return t.retired }
