package script

import (
	"encoding/binary"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/edwinsyarief/katachi"
)

const (
	listTypeName = "katachi.list"
	slotTypeName = "katachi.slot"
)

// listRef is the Lua view of a ComponentList. It is only live for the
// duration of the update call it was made for.
type listRef struct {
	list katachi.ComponentList
	live bool
}

// slotRef is the Lua view of one component slot during an initializer or
// cleanup call.
type slotRef struct {
	data []byte
	live bool
}

func (e *Engine) registerTypes() {
	L := e.vm

	mt := L.NewTypeMetatable(listTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"count":               listCount,
		"entity_type":         listEntityType,
		"get_f32":             listGetF32,
		"set_f32":             listSetF32,
		"get_i32":             listGetI32,
		"set_i32":             listSetI32,
		"destroy_delayed":     listDestroyDelayed,
		"deactivate_delayed":  listDeactivateDelayed,
		"change_type_delayed": listChangeTypeDelayed,
		"spawn":               listSpawn,
	}))

	mt = L.NewTypeMetatable(slotTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"size":    slotSize,
		"get_f32": slotGetF32,
		"set_f32": slotSetF32,
		"get_i32": slotGetI32,
		"set_i32": slotSetI32,
	}))
}

func checkList(L *lua.LState) *listRef {
	ud := L.CheckUserData(1)
	ref, ok := ud.Value.(*listRef)
	if !ok {
		L.ArgError(1, "component list expected")
		return nil
	}
	if !ref.live {
		L.RaiseError("component list used outside its update")
	}
	return ref
}

// word returns the 4 bytes at list:fn(component, i, offset), i being 1-based.
func (r *listRef) word(L *lua.LState) []byte {
	name := L.CheckString(2)
	i := L.CheckInt(3)
	off := L.CheckInt(4)
	col := r.list.Bytes(name)
	n := r.list.Len()
	if col == nil || n == 0 {
		L.ArgError(2, "component not in batch: "+name)
	}
	if i < 1 || i > n {
		L.ArgError(3, "index out of range")
	}
	size := len(col) / n
	if off < 0 || off+4 > size {
		L.ArgError(4, "offset out of range")
	}
	base := (i-1)*size + off
	return col[base : base+4]
}

func (r *listRef) entity(L *lua.LState) katachi.Entity {
	i := L.CheckInt(2)
	ents := r.list.Entities()
	if i < 1 || i > len(ents) {
		L.ArgError(2, "index out of range")
	}
	return ents[i-1]
}

func listCount(L *lua.LState) int {
	L.Push(lua.LNumber(checkList(L).list.Len()))
	return 1
}

func listEntityType(L *lua.LState) int {
	L.Push(lua.LString(checkList(L).list.EntityType()))
	return 1
}

func listGetF32(L *lua.LState) int {
	L.Push(lua.LNumber(getF32(checkList(L).word(L))))
	return 1
}

func listSetF32(L *lua.LState) int {
	setF32(checkList(L).word(L), L.CheckNumber(5))
	return 0
}

func listGetI32(L *lua.LState) int {
	L.Push(lua.LNumber(getI32(checkList(L).word(L))))
	return 1
}

func listSetI32(L *lua.LState) int {
	setI32(checkList(L).word(L), L.CheckNumber(5))
	return 0
}

// pushResult returns true, or false and the error text.
func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func listDestroyDelayed(L *lua.LState) int {
	r := checkList(L)
	return pushResult(L, r.list.World().DestroyEntityDelayed(r.entity(L)))
}

func listDeactivateDelayed(L *lua.LState) int {
	r := checkList(L)
	return pushResult(L, r.list.World().DeactivateDelayed(r.entity(L)))
}

func listChangeTypeDelayed(L *lua.LState) int {
	r := checkList(L)
	e := r.entity(L)
	return pushResult(L, r.list.World().ChangeTypeDelayed(e, L.CheckString(3)))
}

// listSpawn makes an entity that joins system updates after the flush.
func listSpawn(L *lua.LState) int {
	r := checkList(L)
	_, err := r.list.World().MakeEntity(L.CheckString(2))
	return pushResult(L, err)
}

func checkSlot(L *lua.LState) *slotRef {
	ud := L.CheckUserData(1)
	ref, ok := ud.Value.(*slotRef)
	if !ok {
		L.ArgError(1, "component slot expected")
		return nil
	}
	if !ref.live {
		L.RaiseError("component slot used outside its callback")
	}
	return ref
}

func (r *slotRef) word(L *lua.LState) []byte {
	off := L.CheckInt(2)
	if off < 0 || off+4 > len(r.data) {
		L.ArgError(2, "offset out of range")
	}
	return r.data[off : off+4]
}

func slotSize(L *lua.LState) int {
	L.Push(lua.LNumber(len(checkSlot(L).data)))
	return 1
}

func slotGetF32(L *lua.LState) int {
	L.Push(lua.LNumber(getF32(checkSlot(L).word(L))))
	return 1
}

func slotSetF32(L *lua.LState) int {
	setF32(checkSlot(L).word(L), L.CheckNumber(3))
	return 0
}

func slotGetI32(L *lua.LState) int {
	L.Push(lua.LNumber(getI32(checkSlot(L).word(L))))
	return 1
}

func slotSetI32(L *lua.LState) int {
	setI32(checkSlot(L).word(L), L.CheckNumber(3))
	return 0
}

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.NativeEndian.Uint32(b))
}

func setF32(b []byte, v lua.LNumber) {
	binary.NativeEndian.PutUint32(b, math.Float32bits(float32(v)))
}

func getI32(b []byte) int32 {
	return int32(binary.NativeEndian.Uint32(b))
}

func setI32(b []byte, v lua.LNumber) {
	binary.NativeEndian.PutUint32(b, uint32(int32(v)))
}
