package resource

import "github.com/gogpu/gputypes"

// AttributeKind is the data type of a vertex or instance attribute.
type AttributeKind uint8

const (
	AttributeF32 AttributeKind = iota
	AttributeVec2F
	AttributeVec3F
	AttributeVec4F
	AttributeVec4B
	AttributeMat4x4F
)

var attributeNames = [...]string{
	AttributeF32:     "f32",
	AttributeVec2F:   "vec2f",
	AttributeVec3F:   "vec3f",
	AttributeVec4F:   "vec4f",
	AttributeVec4B:   "vec4b",
	AttributeMat4x4F: "mat4x4f",
}

// String returns the attribute type name.
func (k AttributeKind) String() string {
	if int(k) < len(attributeNames) {
		return attributeNames[k]
	}
	return "Unknown"
}

// Size returns the size of one attribute value in bytes.
func (k AttributeKind) Size() uint32 {
	var n uint64
	for _, f := range k.VertexFormats() {
		n += f.Size()
	}
	return uint32(n)
}

// VertexFormats returns the vertex formats a backend binds for the
// attribute. A mat4x4f occupies four consecutive Float32x4 locations.
func (k AttributeKind) VertexFormats() []gputypes.VertexFormat {
	switch k {
	case AttributeF32:
		return []gputypes.VertexFormat{gputypes.VertexFormatFloat32}
	case AttributeVec2F:
		return []gputypes.VertexFormat{gputypes.VertexFormatFloat32x2}
	case AttributeVec3F:
		return []gputypes.VertexFormat{gputypes.VertexFormatFloat32x3}
	case AttributeVec4F:
		return []gputypes.VertexFormat{gputypes.VertexFormatFloat32x4}
	case AttributeVec4B:
		return []gputypes.VertexFormat{gputypes.VertexFormatUnorm8x4}
	case AttributeMat4x4F:
		return []gputypes.VertexFormat{
			gputypes.VertexFormatFloat32x4,
			gputypes.VertexFormatFloat32x4,
			gputypes.VertexFormatFloat32x4,
			gputypes.VertexFormatFloat32x4,
		}
	default:
		return nil
	}
}

// Attribute describes one field of a vertex or instance record.
type Attribute struct {
	Kind   AttributeKind
	Offset uint32
}

// End returns the byte offset just past the attribute.
func (a Attribute) End() uint32 {
	return a.Offset + a.Kind.Size()
}
