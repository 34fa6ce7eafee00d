package katachi

import "unsafe"

// TypelessArray is a packed, resizable array of fixed-size elements that
// carries no static type. Each archetype column is one TypelessArray.
//
// Elements are raw bytes: a layout stored here must not contain Go pointers,
// the garbage collector does not see them.
//
// Growth doubles the capacity, so Add is amortized O(1) and allocates only
// when the backing slice is full. SwapRemove moves the last element into the
// hole and never shifts, which is what keeps removal O(1) and makes element
// order unstable. Pointers returned by Add and At are invalidated by any
// call that may reallocate or move elements.
type TypelessArray struct {
	data     []byte
	scratch  []byte // one element, used by Swap
	elemSize int
	count    int
}

// NewTypelessArray returns an empty array of elemSize-byte elements with room
// for capacity elements.
func NewTypelessArray(elemSize, capacity int) *TypelessArray {
	if elemSize <= 0 {
		panic("katachi: typeless array element size must be positive")
	}
	if capacity < 0 {
		capacity = 0
	}
	return &TypelessArray{
		data:     make([]byte, 0, elemSize*capacity),
		scratch:  make([]byte, elemSize),
		elemSize: elemSize,
	}
}

// Len returns the number of elements.
func (a *TypelessArray) Len() int { return a.count }

// Cap returns how many elements fit before the next reallocation.
func (a *TypelessArray) Cap() int { return cap(a.data) / a.elemSize }

// ElemSize returns the element size in bytes.
func (a *TypelessArray) ElemSize() int { return a.elemSize }

// Add appends one zeroed element and returns a pointer to it. The pointer is
// only good until the next Add, SwapRemove or Clear.
func (a *TypelessArray) Add() unsafe.Pointer {
	a.data = extendByteSlice(a.data, a.elemSize)
	a.count++
	return a.At(a.count - 1)
}

// AddCopy appends one element copied from src.
func (a *TypelessArray) AddCopy(src unsafe.Pointer) unsafe.Pointer {
	dst := a.Add()
	memCopy(dst, src, uintptr(a.elemSize))
	return dst
}

// At returns a pointer to element i.
func (a *TypelessArray) At(i int) unsafe.Pointer {
	if i < 0 || i >= a.count {
		panic("katachi: typeless array index out of range")
	}
	return unsafe.Pointer(&a.data[i*a.elemSize])
}

// Bytes returns element i as a byte slice aliasing the storage.
func (a *TypelessArray) Bytes(i int) []byte {
	off := i * a.elemSize
	return a.data[off : off+a.elemSize : off+a.elemSize]
}

// Data returns a pointer to the first element, or nil when empty.
func (a *TypelessArray) Data() unsafe.Pointer {
	if a.count == 0 {
		return nil
	}
	return unsafe.Pointer(&a.data[0])
}

// Slice returns the first n elements as one contiguous byte slice.
func (a *TypelessArray) Slice(n int) []byte {
	if n > a.count {
		n = a.count
	}
	return a.data[: n*a.elemSize : n*a.elemSize]
}

// SwapRemove removes element i by moving the last element into its place.
// It reports whether an element was moved; if so the element formerly at
// Len() (before the call) now lives at i.
func (a *TypelessArray) SwapRemove(i int) bool {
	last := a.count - 1
	if i < 0 || i > last {
		panic("katachi: typeless array index out of range")
	}
	moved := false
	if i != last {
		copy(a.Bytes(i), a.Bytes(last))
		moved = true
	}
	a.data = a.data[:last*a.elemSize]
	a.count = last
	return moved
}

// Swap exchanges elements i and j.
func (a *TypelessArray) Swap(i, j int) {
	if i == j {
		return
	}
	bi, bj := a.Bytes(i), a.Bytes(j)
	copy(a.scratch, bi)
	copy(bi, bj)
	copy(bj, a.scratch)
}

// Clear drops every element but keeps the allocation.
func (a *TypelessArray) Clear() {
	a.data = a.data[:0]
	a.count = 0
}
