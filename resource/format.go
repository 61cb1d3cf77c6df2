package resource

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gputypes"
)

// BufferType hints how often a Buffer's contents change.
type BufferType uint8

const (
	// BufferStatic contents are written once and drawn many times.
	BufferStatic BufferType = iota
	// BufferDynamic contents are rewritten frequently.
	BufferDynamic
)

// String returns the buffer type name.
func (t BufferType) String() string {
	switch t {
	case BufferStatic:
		return "static"
	case BufferDynamic:
		return "dynamic"
	default:
		return "Unknown"
	}
}

// ElementType is the integer type of index data.
type ElementType uint8

const (
	ElementNone ElementType = iota
	ElementU8
	ElementU16
	ElementU32
)

// String returns the element type name.
func (t ElementType) String() string {
	switch t {
	case ElementNone:
		return "none"
	case ElementU8:
		return "u8"
	case ElementU16:
		return "u16"
	case ElementU32:
		return "u32"
	default:
		return "Unknown"
	}
}

// Size returns the size of one element in bytes, 0 for ElementNone.
func (t ElementType) Size() uint32 {
	switch t {
	case ElementU8:
		return 1
	case ElementU16:
		return 2
	case ElementU32:
		return 4
	default:
		return 0
	}
}

// IndexFormat returns the WebGPU index format. WebGPU has no 8-bit
// indices, so ElementU8 and ElementNone map to IndexFormatUndefined and
// the backend widens them.
func (t ElementType) IndexFormat() gputypes.IndexFormat {
	switch t {
	case ElementU16:
		return gputypes.IndexFormatUint16
	case ElementU32:
		return gputypes.IndexFormatUint32
	default:
		return gputypes.IndexFormatUndefined
	}
}

// formatFlags tracks which properties of a Format were recorded.
type formatFlags uint8

const (
	flagType formatFlags = 1 << iota
	flagElementType
	flagVertexStride
	flagInstanceStride
	flagFinalized
)

// Format describes the layout of a Buffer: element type, strides and the
// attributes of vertex and instance records.
//
// A Format is built with the Record methods and sealed with Finalize.
// Recording after Finalize, or reading a property before it, panics.
// Finalized Formats are immutable and may be shared between Buffers.
type Format struct {
	flags              formatFlags
	bufferType         BufferType
	elementType        ElementType
	vertexStride       uint32
	instanceStride     uint32
	vertexAttributes   []Attribute
	instanceAttributes []Attribute
	hash               uint64
}

// NewFormat returns an empty Format ready for recording.
func NewFormat() *Format {
	return &Format{}
}

// RecordType records the buffer type.
func (f *Format) RecordType(t BufferType) {
	f.mustBeOpen()
	f.bufferType = t
	f.flags |= flagType
}

// RecordElementType records the index element type. Use ElementNone for
// non-indexed geometry.
func (f *Format) RecordElementType(t ElementType) {
	f.mustBeOpen()
	f.elementType = t
	f.flags |= flagElementType
}

// RecordVertexStride records the size of one vertex in bytes.
func (f *Format) RecordVertexStride(stride uint32) {
	f.mustBeOpen()
	f.vertexStride = stride
	f.flags |= flagVertexStride
}

// RecordInstanceStride records the size of one instance record in bytes.
func (f *Format) RecordInstanceStride(stride uint32) {
	f.mustBeOpen()
	f.instanceStride = stride
	f.flags |= flagInstanceStride
}

// RecordVertexAttribute appends a vertex attribute.
func (f *Format) RecordVertexAttribute(kind AttributeKind, offset uint32) {
	f.mustBeOpen()
	f.vertexAttributes = append(f.vertexAttributes, Attribute{Kind: kind, Offset: offset})
}

// RecordInstanceAttribute appends an instance attribute.
func (f *Format) RecordInstanceAttribute(kind AttributeKind, offset uint32) {
	f.mustBeOpen()
	f.instanceAttributes = append(f.instanceAttributes, Attribute{Kind: kind, Offset: offset})
}

// Finalize seals the Format and computes its hash. It panics if the type,
// element type or vertex stride were never recorded, if instance
// attributes exist without an instance stride, or if an attribute does not
// fit inside its stride.
func (f *Format) Finalize() {
	f.mustBeOpen()
	switch {
	case f.flags&flagType == 0:
		panic("resource: Format.Finalize: type not recorded")
	case f.flags&flagElementType == 0:
		panic("resource: Format.Finalize: element type not recorded")
	case f.flags&flagVertexStride == 0:
		panic("resource: Format.Finalize: vertex stride not recorded")
	case f.vertexStride == 0:
		panic("resource: Format.Finalize: vertex stride is zero")
	case len(f.instanceAttributes) > 0 && f.flags&flagInstanceStride == 0:
		panic("resource: Format.Finalize: instance stride not recorded")
	case len(f.instanceAttributes) > 0 && f.instanceStride == 0:
		panic("resource: Format.Finalize: instance stride is zero")
	}
	checkAttributes("vertex", f.vertexAttributes, f.vertexStride)
	checkAttributes("instance", f.instanceAttributes, f.instanceStride)

	f.flags |= flagFinalized
	f.hash = xxhash.Sum64(f.appendCanonical(make([]byte, 0, 32+8*(len(f.vertexAttributes)+len(f.instanceAttributes)))))
}

func checkAttributes(what string, attrs []Attribute, stride uint32) {
	for i, a := range attrs {
		if a.Kind > AttributeMat4x4F {
			panic(fmt.Sprintf("resource: Format.Finalize: %s attribute %d has unknown type %d", what, i, a.Kind))
		}
		if a.End() > stride {
			panic(fmt.Sprintf("resource: Format.Finalize: %s attribute %d (%v at %d) exceeds stride %d",
				what, i, a.Kind, a.Offset, stride))
		}
	}
}

// appendCanonical appends the little-endian encoding hashed by Finalize.
func (f *Format) appendCanonical(b []byte) []byte {
	b = append(b, byte(f.flags&^flagFinalized), byte(f.bufferType), byte(f.elementType))
	b = binary.LittleEndian.AppendUint32(b, f.vertexStride)
	b = binary.LittleEndian.AppendUint32(b, f.instanceStride)
	for _, attrs := range [2][]Attribute{f.vertexAttributes, f.instanceAttributes} {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(attrs)))
		for _, a := range attrs {
			b = append(b, byte(a.Kind))
			b = binary.LittleEndian.AppendUint32(b, a.Offset)
		}
	}
	return b
}

// IsFinalized reports whether Finalize was called.
func (f *Format) IsFinalized() bool {
	return f.flags&flagFinalized != 0
}

// Hash returns the content hash computed by Finalize. Equal Formats have
// equal hashes, in every process.
func (f *Format) Hash() uint64 {
	f.mustBeFinalized()
	return f.hash
}

// Type returns the buffer type.
func (f *Format) Type() BufferType {
	f.mustBeFinalized()
	return f.bufferType
}

// ElementType returns the index element type.
func (f *Format) ElementType() ElementType {
	f.mustBeFinalized()
	return f.elementType
}

// ElementSize returns the size of one index in bytes, 0 if not indexed.
func (f *Format) ElementSize() uint32 {
	f.mustBeFinalized()
	return f.elementType.Size()
}

// VertexStride returns the size of one vertex in bytes.
func (f *Format) VertexStride() uint32 {
	f.mustBeFinalized()
	return f.vertexStride
}

// InstanceStride returns the size of one instance record in bytes.
func (f *Format) InstanceStride() uint32 {
	f.mustBeFinalized()
	return f.instanceStride
}

// VertexAttributes returns a copy of the vertex attributes in record order.
func (f *Format) VertexAttributes() []Attribute {
	f.mustBeFinalized()
	return slices.Clone(f.vertexAttributes)
}

// InstanceAttributes returns a copy of the instance attributes in record
// order.
func (f *Format) InstanceAttributes() []Attribute {
	f.mustBeFinalized()
	return slices.Clone(f.instanceAttributes)
}

// IsIndexed reports whether the Format has an element type.
func (f *Format) IsIndexed() bool {
	f.mustBeFinalized()
	return f.elementType != ElementNone
}

// IsInstanced reports whether the Format has instance attributes.
func (f *Format) IsInstanced() bool {
	f.mustBeFinalized()
	return len(f.instanceAttributes) > 0
}

// IndexFormat returns the WebGPU index format for the element type.
func (f *Format) IndexFormat() gputypes.IndexFormat {
	f.mustBeFinalized()
	return f.elementType.IndexFormat()
}

// VertexLayouts returns the vertex buffer layouts a backend binds: the
// per-vertex layout first, then the per-instance layout if instanced.
// Shader locations are assigned in order across both layouts.
func (f *Format) VertexLayouts() []gputypes.VertexBufferLayout {
	f.mustBeFinalized()
	var location uint32
	build := func(stride uint32, step gputypes.VertexStepMode, attrs []Attribute) gputypes.VertexBufferLayout {
		layout := gputypes.VertexBufferLayout{
			ArrayStride: uint64(stride),
			StepMode:    step,
		}
		for _, a := range attrs {
			offset := uint64(a.Offset)
			for _, vf := range a.Kind.VertexFormats() {
				layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
					Format:         vf,
					Offset:         offset,
					ShaderLocation: location,
				})
				offset += vf.Size()
				location++
			}
		}
		return layout
	}

	layouts := []gputypes.VertexBufferLayout{
		build(f.vertexStride, gputypes.VertexStepModeVertex, f.vertexAttributes),
	}
	if len(f.instanceAttributes) > 0 {
		layouts = append(layouts, build(f.instanceStride, gputypes.VertexStepModeInstance, f.instanceAttributes))
	}
	return layouts
}

// Equal reports whether two finalized Formats describe the same layout.
func (f *Format) Equal(other *Format) bool {
	if f == other {
		return true
	}
	if other == nil {
		return false
	}
	f.mustBeFinalized()
	other.mustBeFinalized()
	return f.hash == other.hash &&
		f.flags == other.flags &&
		f.bufferType == other.bufferType &&
		f.elementType == other.elementType &&
		f.vertexStride == other.vertexStride &&
		f.instanceStride == other.instanceStride &&
		slices.Equal(f.vertexAttributes, other.vertexAttributes) &&
		slices.Equal(f.instanceAttributes, other.instanceAttributes)
}

// String returns a short description of the layout.
func (f *Format) String() string {
	if !f.IsFinalized() {
		return "Format{unfinalized}"
	}
	return fmt.Sprintf("Format{%v, elements: %v, vertex: %d bytes/%d attrs, instance: %d bytes/%d attrs}",
		f.bufferType, f.elementType, f.vertexStride, len(f.vertexAttributes),
		f.instanceStride, len(f.instanceAttributes))
}

func (f *Format) mustBeOpen() {
	if f.flags&flagFinalized != 0 {
		panic("resource: Format is finalized")
	}
}

func (f *Format) mustBeFinalized() {
	if f.flags&flagFinalized == 0 {
		panic("resource: Format is not finalized")
	}
}
