package command

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/frontend/resource"
)

// editSize is the encoded size of one buffer edit tuple.
const editSize = 12

// TextureEditDims returns the number of offset and size components
// encoded per texture edit: 1 for 1D, 2 for 2D and 3 for 3D textures.
// Cube map edits carry the face as the third component.
func TextureEditDims(kind resource.Kind) int {
	switch kind {
	case resource.KindTexture1D:
		return 1
	case resource.KindTexture2D:
		return 2
	case resource.KindTexture3D, resource.KindTextureCM:
		return 3
	default:
		panic(fmt.Sprintf("command: %v is not a texture", kind))
	}
}

// TextureEditSize returns the encoded size of one texture edit tuple.
func TextureEditSize(kind resource.Kind) int {
	return 4 * (1 + 2*TextureEditDims(kind))
}

// encode records cmd followed by a footer of the given size and returns
// the footer.
func encode[T any](b *Buffer, typ Type, tag Tag, cmd *T, footer int) ([]byte, bool) {
	fixed := binary.Size(cmd)
	if fixed < 0 {
		panic(fmt.Sprintf("command: %T is not a fixed-size payload", cmd))
	}
	payload, ok := b.Allocate(fixed+footer, typ, tag)
	if !ok {
		return nil, false
	}
	if _, err := binary.Encode(payload, binary.LittleEndian, cmd); err != nil {
		panic(fmt.Sprintf("command: encode %v: %v", typ, err))
	}
	return payload[fixed:], true
}

// RecordResource records an allocate, construct or destroy command.
func (b *Buffer) RecordResource(typ Type, tag Tag, cmd ResourceCommand) bool {
	if !typ.IsResource() {
		panic(fmt.Sprintf("command: %v is not a resource command", typ))
	}
	_, ok := encode(b, typ, tag, &cmd, 0)
	return ok
}

// RecordBufferUpdate records an update of a buffer with its edit list as
// footer.
func (b *Buffer) RecordBufferUpdate(tag Tag, id resource.ID, edits []resource.Edit) bool {
	cmd := UpdateCommand{Kind: resource.KindBuffer, ID: id, Edits: uint32(len(edits))}
	footer, ok := encode(b, TypeResourceUpdate, tag, &cmd, len(edits)*editSize)
	if !ok {
		return false
	}
	if len(edits) > 0 {
		if _, err := binary.Encode(footer, binary.LittleEndian, edits); err != nil {
			panic(fmt.Sprintf("command: encode edits: %v", err))
		}
	}
	return true
}

// RecordTextureUpdate records an update of a texture with its edit list
// as footer.
func (b *Buffer) RecordTextureUpdate(tag Tag, kind resource.Kind, id resource.ID, edits []resource.TextureEdit) bool {
	dims := TextureEditDims(kind)
	cmd := UpdateCommand{Kind: kind, ID: id, Edits: uint32(len(edits))}
	footer, ok := encode(b, TypeResourceUpdate, tag, &cmd, len(edits)*TextureEditSize(kind))
	if !ok {
		return false
	}
	for _, e := range edits {
		binary.LittleEndian.PutUint32(footer, e.Level)
		for axis := range dims {
			binary.LittleEndian.PutUint32(footer[4*(1+axis):], e.Offset[axis])
			binary.LittleEndian.PutUint32(footer[4*(1+dims+axis):], e.Size[axis])
		}
		footer = footer[4*(1+2*dims):]
	}
	return true
}

// RecordDraw records a draw and returns its uniform footer of
// cmd.UniformSize bytes for the caller to fill.
func (b *Buffer) RecordDraw(tag Tag, cmd DrawCommand) ([]byte, bool) {
	return encode(b, TypeDraw, tag, &cmd, int(cmd.UniformSize))
}

// RecordClear records a clear.
func (b *Buffer) RecordClear(tag Tag, cmd ClearCommand) bool {
	_, ok := encode(b, TypeClear, tag, &cmd, 0)
	return ok
}

// RecordBlit records a blit.
func (b *Buffer) RecordBlit(tag Tag, cmd BlitCommand) bool {
	_, ok := encode(b, TypeBlit, tag, &cmd, 0)
	return ok
}

// RecordDownload records a download.
func (b *Buffer) RecordDownload(tag Tag, cmd DownloadCommand) bool {
	_, ok := encode(b, TypeDownload, tag, &cmd, 0)
	return ok
}

// RecordProfile records the beginning or end of a profiling scope labelled
// by tag.
func (b *Buffer) RecordProfile(tag Tag, scope ProfileScope) bool {
	cmd := ProfileCommand{Scope: scope}
	_, ok := encode(b, TypeProfile, tag, &cmd, 0)
	return ok
}
