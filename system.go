package katachi

// SystemID is the position of a system in definition order, which is also
// its execution order.
type SystemID uint16

// SystemUpdateFn is called once per matching archetype with the batch of
// active entities. The columns behind list are valid for the duration of the
// call only.
type SystemUpdateFn func(list ComponentList, count int, udata any)

// SystemHookFn runs immediately before or after a system's update, once per
// matching archetype.
type SystemHookFn func(udata any)

// systemType is a sealed system definition.
type systemType struct {
	id         SystemID
	required   []ComponentID
	mask       bitmask256
	update     SystemUpdateFn
	preUpdate  SystemHookFn
	postUpdate SystemHookFn
	udata      any
}

type systemRegistry struct {
	names   nameTable
	types   []systemType
	pending *SystemBuilder
}

// SystemNames returns every system name in execution order.
func (c *Context) SystemNames() []string {
	return c.systems.names.list()
}

// runSystem feeds every matching table of w to s.
func (w *World) runSystem(s *systemType) {
	for _, tbl := range w.tables {
		if tbl == nil || tbl.active == 0 || !tbl.mask.contains(s.mask) {
			continue
		}
		count := tbl.active
		list := ComponentList{world: w, table: tbl, mask: s.mask, count: count}
		if s.preUpdate != nil {
			s.preUpdate(s.udata)
		}
		s.update(list, count, s.udata)
		if s.postUpdate != nil {
			s.postUpdate(s.udata)
		}
	}
}
