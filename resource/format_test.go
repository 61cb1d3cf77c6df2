package resource

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFormat returns a finalized indexed, instanced Format: a 20 byte
// vertex (vec3f position, vec2f uv) and a 64 byte instance (mat4x4f).
func testFormat(t *testing.T) *Format {
	t.Helper()
	f := NewFormat()
	f.RecordType(BufferDynamic)
	f.RecordElementType(ElementU16)
	f.RecordVertexStride(20)
	f.RecordVertexAttribute(AttributeVec3F, 0)
	f.RecordVertexAttribute(AttributeVec2F, 12)
	f.RecordInstanceStride(64)
	f.RecordInstanceAttribute(AttributeMat4x4F, 0)
	f.Finalize()
	return f
}

func simpleFormat(stride uint32, elements ElementType) *Format {
	f := NewFormat()
	f.RecordType(BufferStatic)
	f.RecordElementType(elements)
	f.RecordVertexStride(stride)
	f.RecordVertexAttribute(AttributeF32, 0)
	f.Finalize()
	return f
}

func TestFormatAccessors(t *testing.T) {
	f := testFormat(t)

	assert.Equal(t, BufferDynamic, f.Type())
	assert.Equal(t, ElementU16, f.ElementType())
	assert.Equal(t, uint32(2), f.ElementSize())
	assert.Equal(t, uint32(20), f.VertexStride())
	assert.Equal(t, uint32(64), f.InstanceStride())
	assert.True(t, f.IsIndexed())
	assert.True(t, f.IsInstanced())
	assert.Len(t, f.VertexAttributes(), 2)
	assert.Len(t, f.InstanceAttributes(), 1)
	assert.Equal(t, gputypes.IndexFormatUint16, f.IndexFormat())
}

func TestFormatImmutableAfterFinalize(t *testing.T) {
	f := testFormat(t)
	hash := f.Hash()

	mutations := map[string]func(){
		"RecordType":              func() { f.RecordType(BufferStatic) },
		"RecordElementType":       func() { f.RecordElementType(ElementU32) },
		"RecordVertexStride":      func() { f.RecordVertexStride(4) },
		"RecordInstanceStride":    func() { f.RecordInstanceStride(4) },
		"RecordVertexAttribute":   func() { f.RecordVertexAttribute(AttributeF32, 0) },
		"RecordInstanceAttribute": func() { f.RecordInstanceAttribute(AttributeF32, 0) },
		"Finalize":                func() { f.Finalize() },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithValue(t, "resource: Format is finalized", mutate)
		})
	}
	assert.Equal(t, hash, f.Hash())
	assert.Equal(t, uint32(20), f.VertexStride())
}

func TestFormatAttributesAreCopies(t *testing.T) {
	f := testFormat(t)
	other := testFormat(t)

	attrs := f.VertexAttributes()
	attrs[0] = Attribute{Kind: AttributeVec4B, Offset: 16}
	instances := f.InstanceAttributes()
	instances[0].Offset = 4

	assert.Equal(t, AttributeVec3F, f.VertexAttributes()[0].Kind)
	assert.Equal(t, uint32(0), f.InstanceAttributes()[0].Offset)
	assert.True(t, f.Equal(other))
	assert.Equal(t, other.Hash(), f.Hash())
}

func TestFormatAccessorsPanicBeforeFinalize(t *testing.T) {
	f := NewFormat()
	assert.Panics(t, func() { f.VertexStride() })
	assert.Panics(t, func() { f.IsIndexed() })
	assert.Panics(t, func() { f.Hash() })
	assert.False(t, f.IsFinalized())
	assert.Equal(t, "Format{unfinalized}", f.String())
}

func TestFormatFinalizeRequiresFields(t *testing.T) {
	tests := []struct {
		name   string
		record func(f *Format)
		want   string
	}{
		{
			name: "type",
			record: func(f *Format) {
				f.RecordElementType(ElementNone)
				f.RecordVertexStride(4)
			},
			want: "resource: Format.Finalize: type not recorded",
		},
		{
			name: "element type",
			record: func(f *Format) {
				f.RecordType(BufferStatic)
				f.RecordVertexStride(4)
			},
			want: "resource: Format.Finalize: element type not recorded",
		},
		{
			name: "vertex stride",
			record: func(f *Format) {
				f.RecordType(BufferStatic)
				f.RecordElementType(ElementNone)
			},
			want: "resource: Format.Finalize: vertex stride not recorded",
		},
		{
			name: "instance stride",
			record: func(f *Format) {
				f.RecordType(BufferStatic)
				f.RecordElementType(ElementNone)
				f.RecordVertexStride(4)
				f.RecordInstanceAttribute(AttributeF32, 0)
			},
			want: "resource: Format.Finalize: instance stride not recorded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormat()
			tt.record(f)
			assert.PanicsWithValue(t, tt.want, f.Finalize)
		})
	}
}

func TestFormatAttributeMustFitStride(t *testing.T) {
	f := NewFormat()
	f.RecordType(BufferStatic)
	f.RecordElementType(ElementNone)
	f.RecordVertexStride(12)
	f.RecordVertexAttribute(AttributeVec4F, 0)
	assert.Panics(t, f.Finalize)
}

func TestFormatEqualAndHash(t *testing.T) {
	a := testFormat(t)
	b := testFormat(t)
	c := simpleFormat(4, ElementNone)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.False(t, a.Equal(nil))

	// Attribute order is part of the layout.
	d := NewFormat()
	d.RecordType(BufferDynamic)
	d.RecordElementType(ElementU16)
	d.RecordVertexStride(20)
	d.RecordVertexAttribute(AttributeVec2F, 12)
	d.RecordVertexAttribute(AttributeVec3F, 0)
	d.RecordInstanceStride(64)
	d.RecordInstanceAttribute(AttributeMat4x4F, 0)
	d.Finalize()
	assert.False(t, a.Equal(d))
}

func TestFormatVertexLayouts(t *testing.T) {
	layouts := testFormat(t).VertexLayouts()
	require.Len(t, layouts, 2)

	vertex := layouts[0]
	assert.Equal(t, uint64(20), vertex.ArrayStride)
	assert.Equal(t, gputypes.VertexStepModeVertex, vertex.StepMode)
	require.Len(t, vertex.Attributes, 2)
	assert.Equal(t, gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0}, vertex.Attributes[0])
	assert.Equal(t, gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1}, vertex.Attributes[1])

	instance := layouts[1]
	assert.Equal(t, gputypes.VertexStepModeInstance, instance.StepMode)
	require.Len(t, instance.Attributes, 4, "mat4x4f spans four locations")
	for i, a := range instance.Attributes {
		assert.Equal(t, gputypes.VertexFormatFloat32x4, a.Format)
		assert.Equal(t, uint64(16*i), a.Offset)
		assert.Equal(t, uint32(2+i), a.ShaderLocation)
	}

	assert.Len(t, simpleFormat(4, ElementNone).VertexLayouts(), 1)
}

func TestAttributeSizes(t *testing.T) {
	tests := []struct {
		kind AttributeKind
		size uint32
	}{
		{AttributeF32, 4},
		{AttributeVec2F, 8},
		{AttributeVec3F, 12},
		{AttributeVec4F, 16},
		{AttributeVec4B, 4},
		{AttributeMat4x4F, 64},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.size, tt.kind.Size())
		})
	}
	assert.Equal(t, "Unknown", AttributeKind(99).String())
}

func TestElementTypeIndexFormat(t *testing.T) {
	assert.Equal(t, gputypes.IndexFormatUndefined, ElementNone.IndexFormat())
	assert.Equal(t, gputypes.IndexFormatUndefined, ElementU8.IndexFormat())
	assert.Equal(t, gputypes.IndexFormatUint16, ElementU16.IndexFormat())
	assert.Equal(t, gputypes.IndexFormatUint32, ElementU32.IndexFormat())
	assert.Equal(t, uint32(1), ElementU8.Size())
	assert.Equal(t, uint32(4), ElementU32.Size())
}
