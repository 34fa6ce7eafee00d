package katachi

// bitmask256 is a set of up to MaxComponentTypes component IDs. Every
// archetype table and every system carries one; matching a system against a
// table is a single contains check.
type bitmask256 [4]uint64

// set enables the bit for id.
func (m *bitmask256) set(id ComponentID) {
	m[id>>6] |= uint64(1) << (id & 63)
}

// has reports whether the bit for id is set.
func (m bitmask256) has(id ComponentID) bool {
	return m[id>>6]&(uint64(1)<<(id&63)) != 0
}

// contains reports whether every bit of sub is also set in m, i.e. whether
// an archetype with mask m satisfies a query that requires sub.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}
