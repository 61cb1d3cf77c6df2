package command

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the size of the Header preceding every payload.
	HeaderSize = 16

	// Alignment is the alignment of every record in the stream.
	Alignment = 16

	// DefaultCapacity is the capacity used when New is given a size below 1.
	DefaultCapacity = 1 << 20
)

// Header precedes every command payload.
//
// Wire layout (little-endian):
//
//	[0]     Type
//	[1:4]   reserved, zero
//	[4:8]   tag index into the Buffer's tag table
//	[8:12]  payload size in bytes, footer included
//	[12:16] record size: header, payload and padding
type Header struct {
	Type        Type
	Tag         uint32
	PayloadSize uint32
	RecordSize  uint32
}

func (h Header) put(b []byte) {
	b[0] = byte(h.Type)
	b[1], b[2], b[3] = 0, 0, 0
	binary.LittleEndian.PutUint32(b[4:8], h.Tag)
	binary.LittleEndian.PutUint32(b[8:12], h.PayloadSize)
	binary.LittleEndian.PutUint32(b[12:16], h.RecordSize)
}

func readHeader(b []byte) Header {
	return Header{
		Type:        Type(b[0]),
		Tag:         binary.LittleEndian.Uint32(b[4:8]),
		PayloadSize: binary.LittleEndian.Uint32(b[8:12]),
		RecordSize:  binary.LittleEndian.Uint32(b[12:16]),
	}
}

// Buffer is a fixed-capacity command stream. It is not safe for
// concurrent use; a frontend double-buffers two Buffers to hand a frame to
// its consumer.
type Buffer struct {
	alloc Allocator
	data  []byte
	used  int
	count int
	tags  []Tag
}

// New creates a Buffer whose backing block of capacity bytes is taken once
// from alloc. A nil alloc uses HeapAllocator.
func New(alloc Allocator, capacity int) *Buffer {
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	capacity = alignUp(capacity)
	data := alloc.Allocate(capacity)
	if len(data) < capacity {
		panic(fmt.Sprintf("command: allocator returned %d bytes, want %d", len(data), capacity))
	}
	return &Buffer{alloc: alloc, data: data[:capacity]}
}

// Allocate reserves a record for a payload of size bytes, writes its
// Header and returns the payload. It returns false when the record does
// not fit; the Buffer is left unchanged.
func (b *Buffer) Allocate(size int, typ Type, tag Tag) ([]byte, bool) {
	if size < 0 {
		panic("command: negative payload size")
	}
	record := alignUp(HeaderSize + size)
	if b.data == nil || record > len(b.data)-b.used {
		return nil, false
	}

	start := b.used
	Header{
		Type:        typ,
		Tag:         uint32(len(b.tags)),
		PayloadSize: uint32(size),
		RecordSize:  uint32(record),
	}.put(b.data[start : start+HeaderSize])
	b.tags = append(b.tags, tag)
	b.used += record
	b.count++

	payload := b.data[start+HeaderSize : start+HeaderSize+size : start+HeaderSize+size]
	return payload, true
}

// Reset rewinds the Buffer. Memory is not cleared.
func (b *Buffer) Reset() {
	b.used = 0
	b.count = 0
	clear(b.tags)
	b.tags = b.tags[:0]
}

// Used returns the bytes recorded since the last Reset.
func (b *Buffer) Used() int { return b.used }

// Size returns the capacity in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Len returns the number of commands recorded since the last Reset.
func (b *Buffer) Len() int { return b.count }

// Tag returns entry i of the tag table.
func (b *Buffer) Tag(i uint32) Tag {
	if int(i) >= len(b.tags) {
		return Tag{}
	}
	return b.tags[i]
}

// Bytes returns the recorded stream.
func (b *Buffer) Bytes() []byte { return b.data[:b.used] }

// Close returns the backing block to the allocator. The Buffer must not
// be used afterwards.
func (b *Buffer) Close() {
	if b.data == nil {
		return
	}
	b.alloc.Deallocate(b.data)
	b.data = nil
	b.used = 0
	b.count = 0
	b.tags = nil
}

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}
