package katachi

import (
	"errors"
	"reflect"
)

// ErrDuplicateResource is returned when a world already holds a resource of
// the same type.
var ErrDuplicateResource = errors.New("katachi: resource of the same type already exists")

// Resources holds a world's singletons: data systems share that does not
// belong to any entity, such as a clock or a spatial index. There is at most
// one resource per dynamic type; store pointers so systems can mutate them.
type Resources struct {
	items   []any
	types   map[reflect.Type]int
	freeIDs []int
}

// Add stores res and returns its ID. Freed IDs are reused.
func (r *Resources) Add(res any) (int, error) {
	if res == nil {
		return -1, errors.New("katachi: nil resource")
	}
	t := reflect.TypeOf(res)
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if _, ok := r.types[t]; ok {
		return -1, ErrDuplicateResource
	}
	var id int
	if n := len(r.freeIDs); n > 0 {
		id = r.freeIDs[n-1]
		r.freeIDs = r.freeIDs[:n-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.types[t] = id
	return id, nil
}

// Has reports whether id holds a resource.
func (r *Resources) Has(id int) bool {
	return id >= 0 && id < len(r.items) && r.items[id] != nil
}

// Get returns the resource stored under id, or nil.
func (r *Resources) Get(id int) any {
	if !r.Has(id) {
		return nil
	}
	return r.items[id]
}

// Remove drops the resource stored under id.
func (r *Resources) Remove(id int) {
	if !r.Has(id) {
		return
	}
	delete(r.types, reflect.TypeOf(r.items[id]))
	r.items[id] = nil
	r.freeIDs = append(r.freeIDs, id)
}

// Len returns the number of stored resources.
func (r *Resources) Len() int { return len(r.types) }

// Clear drops every resource.
func (r *Resources) Clear() {
	clear(r.items)
	r.items = r.items[:0]
	clear(r.types)
	r.freeIDs = r.freeIDs[:0]
}

// GetResource returns the *T resource and its ID, or nil and -1.
func GetResource[T any](r *Resources) (*T, int) {
	if id, ok := r.types[reflect.TypeFor[*T]()]; ok {
		return r.items[id].(*T), id
	}
	return nil, -1
}

// HasResource reports whether a *T resource is stored.
func HasResource[T any](r *Resources) bool {
	_, ok := r.types[reflect.TypeFor[*T]()]
	return ok
}
