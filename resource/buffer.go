package resource

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/gogpu/gputypes"
)

// Buffer holds element, vertex and instance data for one Format together
// with the edits not yet sent to the backend.
//
// Each sink is a separate byte store. Mapping a store resizes it and
// returns the whole store; callers record edits for the bytes they wrote.
type Buffer struct {
	id     ID
	format *Format
	stores [NumSinks][]byte
	edits  []Edit
}

// NewBuffer creates a Buffer without a Format.
func NewBuffer(id ID) *Buffer {
	return &Buffer{id: id}
}

// Kind returns KindBuffer.
func (b *Buffer) Kind() Kind { return KindBuffer }

// ID returns the handle assigned at creation.
func (b *Buffer) ID() ID { return b.id }

// Usage returns the bytes held by the three stores.
func (b *Buffer) Usage() int { return b.Size() }

// RecordFormat sets the Format. It must be called exactly once, with a
// finalized Format, before any store is mapped.
func (b *Buffer) RecordFormat(f *Format) {
	switch {
	case b.format != nil:
		panic("resource: Buffer.RecordFormat called twice")
	case f == nil:
		panic("resource: Buffer.RecordFormat format is nil")
	case !f.IsFinalized():
		panic("resource: Buffer.RecordFormat format is not finalized")
	}
	b.format = f
}

// Format returns the recorded Format, or nil.
func (b *Buffer) Format() *Format {
	return b.format
}

// Validate panics if no Format was recorded.
func (b *Buffer) Validate() {
	if b.format == nil {
		panic("resource: Buffer format not recorded")
	}
}

// MapVertices resizes the vertex store to size bytes and returns it.
// Size must be a positive multiple of the vertex stride. Bytes below the
// old size are kept; bytes above it are unspecified.
//
// The returned slice aliases the store only until the store is resized
// again: growth may move it to a new array, and writes through an older
// slice are then lost. The same holds for MapElements, MapInstances and
// Ensure.
func (b *Buffer) MapVertices(size uint32) []byte {
	b.Validate()
	checkMultiple("MapVertices", "vertex stride", size, b.format.VertexStride())
	return b.resize(SinkVertices, size)
}

// MapElements resizes the element store. The Format must be indexed and
// size a positive multiple of the element size.
func (b *Buffer) MapElements(size uint32) []byte {
	b.Validate()
	if !b.format.IsIndexed() {
		panic("resource: Buffer.MapElements: format is not indexed")
	}
	checkMultiple("MapElements", "element size", size, b.format.ElementSize())
	return b.resize(SinkElements, size)
}

// MapInstances resizes the instance store. The Format must be instanced
// and size a positive multiple of the instance stride.
func (b *Buffer) MapInstances(size uint32) []byte {
	b.Validate()
	if !b.format.IsInstanced() {
		panic("resource: Buffer.MapInstances: format is not instanced")
	}
	checkMultiple("MapInstances", "instance stride", size, b.format.InstanceStride())
	return b.resize(SinkInstances, size)
}

// WriteVertices replaces the vertex store with data.
func (b *Buffer) WriteVertices(data []byte) {
	copy(b.MapVertices(uint32(len(data))), data)
}

// WriteElements replaces the element store with data.
func (b *Buffer) WriteElements(data []byte) {
	copy(b.MapElements(uint32(len(data))), data)
}

// WriteInstances replaces the instance store with data.
func (b *Buffer) WriteInstances(data []byte) {
	copy(b.MapInstances(uint32(len(data))), data)
}

// Ensure grows the store of sink to at least size bytes and returns the
// whole store. It never shrinks and does not check strides: arenas size
// stores by their region address space.
func (b *Buffer) Ensure(sink Sink, size uint32) []byte {
	b.Validate()
	checkSink(sink)
	if uint32(len(b.stores[sink])) >= size {
		return b.stores[sink]
	}
	return b.resize(sink, size)
}

// EnsureVertices grows the vertex store to at least size bytes.
func (b *Buffer) EnsureVertices(size uint32) []byte { return b.Ensure(SinkVertices, size) }

// EnsureElements grows the element store to at least size bytes.
func (b *Buffer) EnsureElements(size uint32) []byte { return b.Ensure(SinkElements, size) }

// EnsureInstances grows the instance store to at least size bytes.
func (b *Buffer) EnsureInstances(size uint32) []byte { return b.Ensure(SinkInstances, size) }

// resize sets the length of a store. Growth past the capacity at least
// doubles it, so a growing arena moves its store a logarithmic number of
// times.
func (b *Buffer) resize(sink Sink, size uint32) []byte {
	s := b.stores[sink]
	if n := int(size); n > cap(s) {
		s = slices.Grow(s, max(n, 2*cap(s))-len(s))
	}
	b.stores[sink] = s[:size]
	return b.stores[sink]
}

// RecordVerticesEdit marks size bytes at offset of the vertex store dirty.
func (b *Buffer) RecordVerticesEdit(offset, size uint32) {
	b.RecordEdit(Edit{Sink: SinkVertices, Offset: offset, Size: size})
}

// RecordElementsEdit marks a range of the element store dirty. The Format
// must be indexed.
func (b *Buffer) RecordElementsEdit(offset, size uint32) {
	b.RecordEdit(Edit{Sink: SinkElements, Offset: offset, Size: size})
}

// RecordInstancesEdit marks a range of the instance store dirty. The
// Format must be instanced.
func (b *Buffer) RecordInstancesEdit(offset, size uint32) {
	b.RecordEdit(Edit{Sink: SinkInstances, Offset: offset, Size: size})
}

// RecordEdit appends e to the pending edits. Edits are not deduplicated
// here; see OptimizeEdits. It panics if the edit leaves the store.
func (b *Buffer) RecordEdit(e Edit) {
	b.Validate()
	checkSink(e.Sink)
	switch {
	case e.Sink == SinkElements && !b.format.IsIndexed():
		panic("resource: Buffer.RecordElementsEdit: format is not indexed")
	case e.Sink == SinkInstances && !b.format.IsInstanced():
		panic("resource: Buffer.RecordInstancesEdit: format is not instanced")
	}
	if uint64(e.Offset)+uint64(e.Size) > uint64(len(b.stores[e.Sink])) {
		panic(fmt.Sprintf("resource: edit %v outside %d byte %v store", e, len(b.stores[e.Sink]), e.Sink))
	}
	b.edits = append(b.edits, e)
}

// OptimizeEdits removes every edit fully contained in another edit of the
// same sink. Of identical edits the earliest is kept. The order of the
// surviving edits is preserved. Runs in O(n²); n is small in practice.
func (b *Buffer) OptimizeEdits() {
	b.edits = optimize(b.edits, Edit.Contains)
}

// optimize drops every item contained in another, keeping the earliest of
// equal items, and compacts edits in place.
func optimize[E comparable](edits []E, contains func(outer, inner E) bool) []E {
	n := len(edits)
	if n < 2 {
		return edits
	}

	removed := bitset.New(uint(n))
	for i := range n {
		for j := range n {
			if i == j || removed.Test(uint(j)) {
				continue
			}
			if !contains(edits[j], edits[i]) {
				continue
			}
			if edits[i] == edits[j] && i < j {
				continue
			}
			removed.Set(uint(i))
			break
		}
	}
	if removed.None() {
		return edits
	}

	kept := edits[:0]
	for i, e := range edits {
		if !removed.Test(uint(i)) {
			kept = append(kept, e)
		}
	}
	return kept
}

// BytesForEdits returns the total size of the pending edits.
func (b *Buffer) BytesForEdits() uint64 {
	var n uint64
	for _, e := range b.edits {
		n += uint64(e.Size)
	}
	return n
}

// Edits returns the pending edits. The slice is owned by the Buffer.
func (b *Buffer) Edits() []Edit {
	return b.edits
}

// ClearEdits drops the pending edits.
func (b *Buffer) ClearEdits() {
	b.edits = b.edits[:0]
}

// Store returns the bytes of sink.
func (b *Buffer) Store(sink Sink) []byte {
	checkSink(sink)
	return b.stores[sink]
}

// Vertices returns the vertex store.
func (b *Buffer) Vertices() []byte { return b.stores[SinkVertices] }

// Elements returns the element store.
func (b *Buffer) Elements() []byte { return b.stores[SinkElements] }

// Instances returns the instance store.
func (b *Buffer) Instances() []byte { return b.stores[SinkInstances] }

// Size returns the combined size of the three stores in bytes.
func (b *Buffer) Size() int {
	return len(b.stores[SinkElements]) + len(b.stores[SinkVertices]) + len(b.stores[SinkInstances])
}

// SinkUsage returns the WebGPU usage flags of the device buffer backing
// sink.
func (b *Buffer) SinkUsage(sink Sink) gputypes.BufferUsage {
	checkSink(sink)
	if sink == SinkElements {
		return gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst
	}
	return gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
}

func checkMultiple(op, what string, size, unit uint32) {
	if size == 0 {
		panic("resource: Buffer." + op + ": size is zero")
	}
	if unit == 0 || size%unit != 0 {
		panic(fmt.Sprintf("resource: Buffer.%s: size %d is not a multiple of %s %d", op, size, what, unit))
	}
}

func checkSink(s Sink) {
	if !s.Valid() {
		panic(fmt.Sprintf("resource: unknown sink %d", s))
	}
}
