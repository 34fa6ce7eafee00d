package katachi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// go test -run ^TestHandleLayout$ . -count 1
func TestHandleLayout(t *testing.T) {
	h := makeHandle(0xDEADBEEF, 0x1234, 0x0042)
	require.Equal(t, uint32(0xDEADBEEF), h.Index())
	require.Equal(t, uint16(0x1234), h.Type())
	require.Equal(t, uint16(0x0042), h.Generation())
}

// go test -run ^TestHandleAllocFree$ . -count 1
func TestHandleAllocFree(t *testing.T) {
	table := NewHandleTable(4)
	h := table.Alloc(7, 3)
	require.NotEqual(t, InvalidHandle, h)
	require.True(t, table.Valid(h))
	require.True(t, table.Active(h))
	require.Equal(t, 1, table.Len())

	idx, ok := table.Index(h)
	require.True(t, ok)
	require.Equal(t, uint32(3), idx)

	require.True(t, table.Free(h))
	require.False(t, table.Valid(h))
	require.False(t, table.Free(h), "double free must be a no-op")
	require.Equal(t, 0, table.Len())

	_, ok = table.Index(h)
	require.False(t, ok)
}

// go test -run ^TestHandleReuseKeepsStaleInvalid$ . -count 1
func TestHandleReuseKeepsStaleInvalid(t *testing.T) {
	table := NewHandleTable(0)
	old := table.Alloc(1, 10)
	require.True(t, table.Free(old))

	fresh := table.Alloc(1, 20)
	require.Equal(t, old.Index(), fresh.Index(), "freed slot is reused")
	require.NotEqual(t, old.Generation(), fresh.Generation())
	require.False(t, table.Valid(old))
	require.True(t, table.Valid(fresh))

	require.False(t, table.Free(old), "stale handle must not free the new occupant")
	require.True(t, table.Valid(fresh))
	require.False(t, table.UpdateIndex(old, 99))
	idx, _ := table.Index(fresh)
	require.Equal(t, uint32(20), idx)
}

// go test -run ^TestHandleTypeMismatch$ . -count 1
func TestHandleTypeMismatch(t *testing.T) {
	table := NewHandleTable(0)
	h := table.Alloc(5, 0)
	forged := makeHandle(h.Index(), 6, h.Generation())
	require.False(t, table.Valid(forged))
	require.False(t, table.Valid(InvalidHandle))
	require.False(t, table.Valid(makeHandle(1000, 5, 1)))
}

// go test -run ^TestHandleGenerationSkipsZero$ . -count 1
func TestHandleGenerationSkipsZero(t *testing.T) {
	table := NewHandleTable(1)
	h := table.Alloc(1, 0)
	for range 1 << 16 {
		require.True(t, table.Free(h))
		h = table.Alloc(1, 0)
		require.NotZero(t, h.Generation())
		require.NotEqual(t, InvalidHandle, h)
	}
}

// go test -run ^TestHandleExhaustedSlotIsRetired$ . -count 1
func TestHandleExhaustedSlotIsRetired(t *testing.T) {
	table := NewHandleTable(1)
	first := table.Alloc(1, 0)
	h := first
	for range maxGeneration - 1 {
		require.True(t, table.Free(h))
		h = table.Alloc(1, 0)
		require.Equal(t, first.Index(), h.Index())
		require.False(t, table.Valid(first))
	}
	require.Equal(t, uint16(maxGeneration), h.Generation())

	require.True(t, table.Free(h))
	require.Equal(t, 1, table.Retired())
	next := table.Alloc(1, 0)
	require.NotEqual(t, first.Index(), next.Index(), "retired slot is not reused")
	require.False(t, table.Valid(first))
	require.False(t, table.Valid(h))
	require.False(t, table.Free(h))
	require.Equal(t, 2, table.Cap())
	require.Equal(t, 1, table.Len())
}

// go test -run ^TestHandleActivation$ . -count 1
func TestHandleActivation(t *testing.T) {
	table := NewHandleTable(0)
	h := table.Alloc(1, 0)
	require.True(t, table.Deactivate(h))
	require.False(t, table.Active(h))
	require.True(t, table.Valid(h), "deactivated handles stay valid")
	require.True(t, table.Activate(h))
	require.True(t, table.Active(h))

	table.Free(h)
	require.False(t, table.Activate(h))
	require.False(t, table.Active(h))
}

// go test -run ^TestHandleUpdateIndex$ . -count 1
func TestHandleUpdateIndex(t *testing.T) {
	table := NewHandleTable(0)
	a := table.Alloc(1, 0)
	b := table.Alloc(1, 1)
	require.True(t, table.UpdateIndex(b, 0))
	ia, _ := table.Index(a)
	ib, _ := table.Index(b)
	require.Equal(t, uint32(0), ia)
	require.Equal(t, uint32(0), ib)
	require.True(t, table.Valid(b))
}
