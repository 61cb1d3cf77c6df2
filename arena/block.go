package arena

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/frontend/resource"
)

// UnallocatedSize is the Range size of a sink the Block never mapped.
const UnallocatedSize = ^uint32(0)

// Range is a Block's byte range in one sink of the Arena Buffer.
type Range struct {
	Offset uint32
	Size   uint32
}

var unallocated = Range{Offset: UnallocatedSize, Size: UnallocatedSize}

// Allocated reports whether the Range holds bytes.
func (r Range) Allocated() bool {
	return r.Size != UnallocatedSize
}

// Block is one logical piece of geometry inside an Arena. Its vertex,
// element and instance data live at independent Ranges of the shared
// Buffer.
type Block struct {
	arena     *Arena
	ranges    [resource.NumSinks]Range
	destroyed bool
}

// Arena returns the Arena that owns the Block.
func (b *Block) Arena() *Arena {
	return b.arena
}

// Range returns the Block's Range in sink.
func (b *Block) Range(sink resource.Sink) Range {
	return b.ranges[sink]
}

// Map allocates or resizes the Block's Range in sink to size bytes and
// returns the writable bytes of the Range. Size must be a positive
// multiple of the sink's stride or element size.
//
// When the Range moves, its live bytes are copied to the new location.
// An edit covering the new Range is recorded on the Buffer. Map returns
// nil when the address space cannot grow any further.
//
// The returned slice is valid until the next Map on any Block of the
// Arena. Mapping may grow the shared store, which can move it to a new
// array; writes through a stale slice do not reach the Buffer. Use Bytes
// to get the current bytes of a Range after other Blocks were mapped.
func (b *Block) Map(sink resource.Sink, size uint32) []byte {
	b.mustBeLive()
	a := b.arena
	unit := a.unit(sink)
	if size == 0 || size%unit != 0 {
		panic(fmt.Sprintf("arena: map of %d bytes is not a positive multiple of %d (%v)", size, unit, sink))
	}

	list := a.lists[sink]
	grown := list.Size()
	old := b.ranges[sink]

	var offset uint32
	var ok bool
	if old.Allocated() {
		offset, ok = list.Reallocate(old.Offset, size)
	} else {
		offset, ok = list.Allocate(size)
	}
	if !ok {
		a.logger.Warn("arena: address space exhausted",
			slog.String("sink", sink.String()),
			slog.Uint64("size", uint64(size)),
			slog.Uint64("space", uint64(list.Size())))
		return nil
	}

	store := a.buffer.Ensure(sink, list.Size())
	if list.Size() != grown {
		a.logger.Debug("arena: address space grew",
			slog.String("sink", sink.String()),
			slog.Uint64("from", uint64(grown)),
			slog.Uint64("to", uint64(list.Size())))
	}
	if old.Allocated() && offset != old.Offset {
		n := min(size, old.Size)
		copy(store[offset:offset+n], store[old.Offset:old.Offset+n])
	}

	b.ranges[sink] = Range{Offset: offset, Size: size}
	a.buffer.RecordEdit(resource.Edit{Sink: sink, Offset: offset, Size: size})
	return store[offset : offset+size : offset+size]
}

// Bytes returns the current bytes of the Block's Range in sink, or nil if
// the sink is not allocated. Writes must be followed by a Record*Edit call.
func (b *Block) Bytes(sink resource.Sink) []byte {
	b.mustBeLive()
	r := b.ranges[sink]
	if !r.Allocated() {
		return nil
	}
	store := b.arena.buffer.Store(sink)
	return store[r.Offset : r.Offset+r.Size : r.Offset+r.Size]
}

// MapVertices maps size bytes of vertex data.
func (b *Block) MapVertices(size uint32) []byte { return b.Map(resource.SinkVertices, size) }

// MapElements maps size bytes of element data.
func (b *Block) MapElements(size uint32) []byte { return b.Map(resource.SinkElements, size) }

// MapInstances maps size bytes of instance data.
func (b *Block) MapInstances(size uint32) []byte { return b.Map(resource.SinkInstances, size) }

// WriteVertices maps len(data) bytes of vertex data and copies data in.
// It returns false when the Arena is exhausted.
func (b *Block) WriteVertices(data []byte) bool { return b.write(resource.SinkVertices, data) }

// WriteElements maps len(data) bytes of element data and copies data in.
func (b *Block) WriteElements(data []byte) bool { return b.write(resource.SinkElements, data) }

// WriteInstances maps len(data) bytes of instance data and copies data in.
func (b *Block) WriteInstances(data []byte) bool { return b.write(resource.SinkInstances, data) }

func (b *Block) write(sink resource.Sink, data []byte) bool {
	dst := b.Map(sink, uint32(len(data)))
	if dst == nil {
		return false
	}
	copy(dst, data)
	return true
}

// RecordVerticesEdit marks size bytes at a Block-relative offset of the
// vertex Range dirty. It panics if the edit leaves the Range.
func (b *Block) RecordVerticesEdit(offset, size uint32) {
	b.recordEdit(resource.SinkVertices, offset, size)
}

// RecordElementsEdit marks a Block-relative range of element data dirty.
func (b *Block) RecordElementsEdit(offset, size uint32) {
	b.recordEdit(resource.SinkElements, offset, size)
}

// RecordInstancesEdit marks a Block-relative range of instance data dirty.
func (b *Block) RecordInstancesEdit(offset, size uint32) {
	b.recordEdit(resource.SinkInstances, offset, size)
}

func (b *Block) recordEdit(sink resource.Sink, offset, size uint32) {
	b.mustBeLive()
	r := b.ranges[sink]
	if !r.Allocated() {
		panic(fmt.Sprintf("arena: edit of unmapped block %v range", sink))
	}
	if uint64(offset)+uint64(size) > uint64(r.Size) {
		panic(fmt.Sprintf("arena: edit [%d,%d) outside block %v range of %d bytes",
			offset, uint64(offset)+uint64(size), sink, r.Size))
	}
	b.arena.buffer.RecordEdit(resource.Edit{Sink: sink, Offset: r.Offset + offset, Size: size})
}

// BaseVertex returns the index of the Block's first vertex in the Buffer,
// or 0 if no vertices were mapped.
func (b *Block) BaseVertex() uint32 { return b.base(resource.SinkVertices) }

// BaseElement returns the index of the Block's first element, or 0.
func (b *Block) BaseElement() uint32 { return b.base(resource.SinkElements) }

// BaseInstance returns the index of the Block's first instance, or 0.
func (b *Block) BaseInstance() uint32 { return b.base(resource.SinkInstances) }

func (b *Block) base(sink resource.Sink) uint32 {
	r := b.ranges[sink]
	if !r.Allocated() {
		return 0
	}
	return r.Offset / b.arena.unit(sink)
}

// VertexCount returns the number of vertices mapped by the Block.
func (b *Block) VertexCount() uint32 { return b.count(resource.SinkVertices) }

// ElementCount returns the number of elements mapped by the Block.
func (b *Block) ElementCount() uint32 { return b.count(resource.SinkElements) }

// InstanceCount returns the number of instances mapped by the Block.
func (b *Block) InstanceCount() uint32 { return b.count(resource.SinkInstances) }

func (b *Block) count(sink resource.Sink) uint32 {
	r := b.ranges[sink]
	if !r.Allocated() {
		return 0
	}
	return r.Size / b.arena.unit(sink)
}

// Destroy releases the Block's Ranges. Calling Destroy again is a no-op.
// The Block must not be mapped afterwards.
func (b *Block) Destroy() {
	if b.destroyed {
		return
	}
	for sink, r := range b.ranges {
		if r.Allocated() {
			b.arena.lists[sink].Deallocate(r.Offset)
		}
		b.ranges[sink] = unallocated
	}
	b.destroyed = true
	b.arena.blocks--
}

func (b *Block) mustBeLive() {
	if b.destroyed {
		panic("arena: block is destroyed")
	}
}
