package command

import (
	"slices"

	"github.com/gogpu/frontend/resource"
	"github.com/gogpu/gputypes"
)

// MaxDrawBuffers is the capacity of Buffers and Textures.
const MaxDrawBuffers = 8

// Buffers lists the target attachments a draw or clear writes to.
type Buffers struct {
	Indices [MaxDrawBuffers]uint8
	Count   uint8
}

// Add appends attachment index i. It panics when the list is full.
func (b *Buffers) Add(i uint8) {
	if int(b.Count) == MaxDrawBuffers {
		panic("command: too many draw buffers")
	}
	b.Indices[b.Count] = i
	b.Count++
}

// Slice returns the used part of the list.
func (b *Buffers) Slice() []uint8 { return b.Indices[:b.Count] }

// Equal reports whether o is a prefix of b, so that a pass writing b also
// covers o. The comparison is not symmetric: it is false when o is
// longer than b.
func (b Buffers) Equal(o Buffers) bool {
	if o.Count > b.Count {
		return false
	}
	return slices.Equal(b.Indices[:o.Count], o.Indices[:o.Count])
}

// Textures lists the textures bound by a draw, in binding order.
type Textures struct {
	IDs   [MaxDrawBuffers]resource.ID
	Count uint8
}

// Add appends a texture. It panics when the list is full.
func (t *Textures) Add(id resource.ID) {
	if int(t.Count) == MaxDrawBuffers {
		panic("command: too many textures")
	}
	t.IDs[t.Count] = id
	t.Count++
}

// Slice returns the used part of the list.
func (t *Textures) Slice() []resource.ID { return t.IDs[:t.Count] }

// Equal reports whether o is a prefix of t. Like Buffers.Equal it is
// false when o is longer than t.
func (t Textures) Equal(o Textures) bool {
	if o.Count > t.Count {
		return false
	}
	return slices.Equal(t.IDs[:o.Count], o.IDs[:o.Count])
}

// State is the fixed-function pipeline state of a draw.
type State struct {
	Cull         gputypes.CullMode
	FrontFace    gputypes.FrontFace
	DepthCompare gputypes.CompareFunction
	DepthWrite   bool
	Blend        bool
	BlendSrc     gputypes.BlendFactor
	BlendDst     gputypes.BlendFactor
	WriteMask    gputypes.ColorWriteMask
	ScissorTest  bool
	Viewport     [4]uint32 // x, y, width, height
	Scissor      [4]uint32 // x, y, width, height
}

// DefaultState writes all channels without depth testing, blending or
// culling.
func DefaultState() State {
	return State{
		DepthCompare: gputypes.CompareFunctionAlways,
		WriteMask:    gputypes.ColorWriteMaskAll,
	}
}

// ResourceCommand is the payload of allocate, construct and destroy.
type ResourceCommand struct {
	Kind resource.Kind
	ID   resource.ID
}

// UpdateCommand is the payload of TypeResourceUpdate. The footer holds
// Edits tuples: {sink, offset, size} for buffers and
// {level, offset[d], size[d]} for textures of dimension d.
type UpdateCommand struct {
	Kind  resource.Kind
	ID    resource.ID
	Edits uint32
}

// DrawCommand is the payload of TypeDraw. The footer holds UniformSize
// bytes: the values of the uniforms set in DirtyUniforms, in uniform order.
type DrawCommand struct {
	Buffers       Buffers
	Textures      Textures
	State         State
	Target        resource.ID
	Buffer        resource.ID
	Program       resource.ID
	Count         uint32
	Offset        uint32
	Instances     uint32
	BaseVertex    uint32
	BaseInstance  uint32
	Primitive     gputypes.PrimitiveTopology
	DirtyUniforms uint64
	UniformSize   uint32
}

// ClearCommand is the payload of TypeClear. Bit i of ClearColors selects
// Colors[i] for the i-th entry of Buffers.
type ClearCommand struct {
	Buffers      Buffers
	State        State
	Target       resource.ID
	ClearDepth   bool
	ClearStencil bool
	ClearColors  uint32
	Stencil      uint8
	Depth        float32
	Colors       [MaxDrawBuffers]gputypes.Color
}

// BlitCommand is the payload of TypeBlit.
type BlitCommand struct {
	SrcTarget     resource.ID
	SrcAttachment uint32
	DstTarget     resource.ID
	DstAttachment uint32
}

// DownloadCommand is the payload of TypeDownload. The rectangle size comes
// from the Downloader.
type DownloadCommand struct {
	SrcTarget     resource.ID
	SrcAttachment uint32
	OffsetX       uint32
	OffsetY       uint32
	Downloader    resource.ID
}

// ProfileScope opens or closes a profiling scope.
type ProfileScope uint8

const (
	ProfileBegin ProfileScope = iota
	ProfileEnd
)

// ProfileCommand is the payload of TypeProfile. The scope label is the
// command's Tag description.
type ProfileCommand struct {
	Scope ProfileScope
}
