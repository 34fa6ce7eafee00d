package katachi

import "github.com/cespare/xxhash/v2"

// nameTable maps names to dense IDs. Keys are xxhash64 digests of the name;
// colliding names share a bucket and are told apart by comparing the text.
type nameTable struct {
	buckets map[uint64][]int32
	names   []string // by ID; "" for IDs whose name was handed to another table
}

func newNameTable() nameTable {
	return nameTable{buckets: make(map[uint64][]int32, 16)}
}

func (t *nameTable) lookup(name string) (int32, bool) {
	for _, id := range t.buckets[xxhash.Sum64String(name)] {
		if t.names[id] == name {
			return id, true
		}
	}
	return -1, false
}

// insert assigns the next ID to name. The caller checks for duplicates.
func (t *nameTable) insert(name string) int32 {
	id := int32(len(t.names))
	t.names = append(t.names, name)
	h := xxhash.Sum64String(name)
	t.buckets[h] = append(t.buckets[h], id)
	return id
}

// rename relabels id. Nothing else refers to the name, so IDs stay stable.
func (t *nameTable) rename(id int32, name string) {
	old := t.names[id]
	h := xxhash.Sum64String(old)
	bucket := t.buckets[h]
	for i, v := range bucket {
		if v == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(t.buckets, h)
	} else {
		t.buckets[h] = bucket
	}
	t.names[id] = name
	h = xxhash.Sum64String(name)
	t.buckets[h] = append(t.buckets[h], id)
}

func (t *nameTable) name(id int32) string { return t.names[id] }

func (t *nameTable) len() int { return len(t.names) }

// list returns a caller-owned copy of every name in ID order.
func (t *nameTable) list() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
