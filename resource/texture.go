package resource

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
)

// Texture errors.
var (
	// ErrTextureKind is returned when a texture is created with a non-texture Kind.
	ErrTextureKind = errors.New("resource: not a texture kind")

	// ErrTextureFormat is returned for pixel formats without a fixed texel size.
	ErrTextureFormat = errors.New("resource: unsupported texture format")

	// ErrTextureSize is returned when the extent does not suit the kind.
	ErrTextureSize = errors.New("resource: invalid texture size")

	// ErrTextureLevels is returned when the mip chain is empty or too long.
	ErrTextureLevels = errors.New("resource: invalid mip level count")
)

// CubeFaces is the number of array layers of a cube map.
const CubeFaces = 6

// TextureDescriptor describes a Texture at creation.
type TextureDescriptor struct {
	// Format is the pixel format. Only uncompressed formats are accepted.
	Format gputypes.TextureFormat

	// Size is the extent of level 0. Depth is 1 for 1D and 2D textures and
	// CubeFaces for cube maps.
	Size gputypes.Extent3D

	// Levels is the number of mip levels, at least 1.
	Levels uint32
}

// TextureEdit is a dirty box of one mip level. Unused axes of 1D and 2D
// textures have offset 0 and size 1.
type TextureEdit struct {
	Level  uint32
	Offset [3]uint32
	Size   [3]uint32
}

// Contains reports whether other lies entirely inside e on the same level.
func (e TextureEdit) Contains(other TextureEdit) bool {
	if e.Level != other.Level {
		return false
	}
	for axis := range 3 {
		if other.Offset[axis] < e.Offset[axis] ||
			uint64(other.Offset[axis])+uint64(other.Size[axis]) > uint64(e.Offset[axis])+uint64(e.Size[axis]) {
			return false
		}
	}
	return true
}

// Texture is a 1D, 2D, 3D or cube map image with a CPU-side copy of every
// mip level.
type Texture struct {
	id     ID
	kind   Kind
	desc   TextureDescriptor
	levels [][]byte
	edits  []TextureEdit
}

// NewTexture validates desc against kind and allocates level storage.
func NewTexture(id ID, kind Kind, desc TextureDescriptor) (*Texture, error) {
	if !kind.IsTexture() {
		return nil, fmt.Errorf("%w: %v", ErrTextureKind, kind)
	}
	bpp := BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %v", ErrTextureFormat, desc.Format)
	}

	s := desc.Size
	if s.Width == 0 || s.Height == 0 || s.DepthOrArrayLayers == 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrTextureSize, s.Width, s.Height, s.DepthOrArrayLayers)
	}
	switch kind {
	case KindTexture1D:
		if s.Height != 1 || s.DepthOrArrayLayers != 1 {
			return nil, fmt.Errorf("%w: 1D texture is %dx%dx%d", ErrTextureSize, s.Width, s.Height, s.DepthOrArrayLayers)
		}
	case KindTexture2D:
		if s.DepthOrArrayLayers != 1 {
			return nil, fmt.Errorf("%w: 2D texture has depth %d", ErrTextureSize, s.DepthOrArrayLayers)
		}
	case KindTextureCM:
		if s.Width != s.Height || s.DepthOrArrayLayers != CubeFaces {
			return nil, fmt.Errorf("%w: cube map is %dx%dx%d", ErrTextureSize, s.Width, s.Height, s.DepthOrArrayLayers)
		}
	}

	t := &Texture{id: id, kind: kind, desc: desc}
	if maxLevels := t.maxLevels(); desc.Levels == 0 || desc.Levels > maxLevels {
		return nil, fmt.Errorf("%w: %d, want 1..%d", ErrTextureLevels, desc.Levels, maxLevels)
	}

	t.levels = make([][]byte, desc.Levels)
	for level := range t.levels {
		e := t.LevelExtent(uint32(level))
		t.levels[level] = make([]byte, int(e.Width)*int(e.Height)*int(e.DepthOrArrayLayers)*bpp)
	}
	return t, nil
}

func (t *Texture) maxLevels() uint32 {
	s := t.desc.Size
	largest := max(s.Width, s.Height)
	if t.kind == KindTexture3D {
		largest = max(largest, s.DepthOrArrayLayers)
	}
	return uint32(bits.Len32(largest))
}

// Kind returns the texture kind.
func (t *Texture) Kind() Kind { return t.kind }

// ID returns the handle assigned at creation.
func (t *Texture) ID() ID { return t.id }

// Usage returns the bytes held by all mip levels.
func (t *Texture) Usage() int {
	n := 0
	for _, l := range t.levels {
		n += len(l)
	}
	return n
}

// Format returns the pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Size returns the extent of level 0.
func (t *Texture) Size() gputypes.Extent3D { return t.desc.Size }

// Levels returns the number of mip levels.
func (t *Texture) Levels() uint32 { return t.desc.Levels }

// Dimension returns the WebGPU dimension. Cube maps are 2D textures with
// six array layers.
func (t *Texture) Dimension() gputypes.TextureDimension {
	switch t.kind {
	case KindTexture1D:
		return gputypes.TextureDimension1D
	case KindTexture3D:
		return gputypes.TextureDimension3D
	default:
		return gputypes.TextureDimension2D
	}
}

// TextureUsage returns the usage flags of the device texture.
func (t *Texture) TextureUsage() gputypes.TextureUsage {
	return gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst |
		gputypes.TextureUsageCopySrc | gputypes.TextureUsageRenderAttachment
}

// LevelExtent returns the extent of a mip level. Array layers of cube maps
// do not shrink.
func (t *Texture) LevelExtent(level uint32) gputypes.Extent3D {
	s := t.desc.Size
	e := gputypes.Extent3D{
		Width:              max(1, s.Width>>level),
		Height:             max(1, s.Height>>level),
		DepthOrArrayLayers: s.DepthOrArrayLayers,
	}
	if t.kind == KindTexture3D {
		e.DepthOrArrayLayers = max(1, s.DepthOrArrayLayers>>level)
	}
	return e
}

// BytesPerRow returns the tightly packed row pitch of a mip level.
func (t *Texture) BytesPerRow(level uint32) uint32 {
	return t.LevelExtent(level).Width * uint32(BytesPerPixel(t.desc.Format))
}

// Level returns the pixels of a mip level. Writes must be followed by
// RecordEdit for the changed box.
func (t *Texture) Level(level uint32) []byte {
	t.checkLevel(level)
	return t.levels[level]
}

// WriteLevel copies data into a mip level and records an edit covering it.
func (t *Texture) WriteLevel(level uint32, data []byte) {
	t.checkLevel(level)
	if len(data) != len(t.levels[level]) {
		panic(fmt.Sprintf("resource: Texture.WriteLevel: %d bytes for a %d byte level", len(data), len(t.levels[level])))
	}
	copy(t.levels[level], data)
	e := t.LevelExtent(level)
	t.edits = append(t.edits, TextureEdit{
		Level: level,
		Size:  [3]uint32{e.Width, e.Height, e.DepthOrArrayLayers},
	})
}

// RecordEdit appends an edit. It panics if the box leaves the level.
func (t *Texture) RecordEdit(e TextureEdit) {
	t.checkLevel(e.Level)
	extent := t.LevelExtent(e.Level)
	limits := [3]uint32{extent.Width, extent.Height, extent.DepthOrArrayLayers}
	for axis := range 3 {
		if e.Size[axis] == 0 || uint64(e.Offset[axis])+uint64(e.Size[axis]) > uint64(limits[axis]) {
			panic(fmt.Sprintf("resource: texture edit %v outside level %d extent %v", e, e.Level, limits))
		}
	}
	t.edits = append(t.edits, e)
}

// Edits returns the pending edits. The slice is owned by the Texture.
func (t *Texture) Edits() []TextureEdit { return t.edits }

// ClearEdits drops the pending edits.
func (t *Texture) ClearEdits() { t.edits = t.edits[:0] }

// OptimizeEdits removes every edit contained in another edit of the same
// level, keeping the earliest of identical edits.
func (t *Texture) OptimizeEdits() {
	t.edits = optimize(t.edits, TextureEdit.Contains)
}

// BytesForEdits returns the number of pixel bytes covered by the pending
// edits.
func (t *Texture) BytesForEdits() uint64 {
	bpp := uint64(BytesPerPixel(t.desc.Format))
	var n uint64
	for _, e := range t.edits {
		n += uint64(e.Size[0]) * uint64(e.Size[1]) * uint64(e.Size[2]) * bpp
	}
	return n
}

func (t *Texture) checkLevel(level uint32) {
	if level >= uint32(len(t.levels)) {
		panic(fmt.Sprintf("resource: mip level %d out of range [0,%d)", level, len(t.levels)))
	}
}

// BytesPerPixel returns the texel size of an uncompressed format, or 0.
func BytesPerPixel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatR16Unorm, gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float, gputypes.TextureFormatRG8Unorm,
		gputypes.TextureFormatRG8Snorm, gputypes.TextureFormatRG8Uint,
		gputypes.TextureFormatRG8Sint, gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatR32Uint,
		gputypes.TextureFormatR32Sint, gputypes.TextureFormatRG16Unorm,
		gputypes.TextureFormatRG16Snorm, gputypes.TextureFormatRG16Uint,
		gputypes.TextureFormatRG16Sint, gputypes.TextureFormatRG16Float,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatRGBA8Snorm, gputypes.TextureFormatRGBA8Uint,
		gputypes.TextureFormatRGBA8Sint, gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatBGRA8UnormSrgb, gputypes.TextureFormatRGB10A2Uint,
		gputypes.TextureFormatRGB10A2Unorm, gputypes.TextureFormatRG11B10Ufloat,
		gputypes.TextureFormatRGB9E5Ufloat, gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth24PlusStencil8, gputypes.TextureFormatDepth32Float:
		return 4
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint, gputypes.TextureFormatRGBA16Unorm,
		gputypes.TextureFormatRGBA16Snorm, gputypes.TextureFormatRGBA16Uint,
		gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8
	case gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 16
	default:
		return 0
	}
}
