package command

import (
	"encoding/binary"
	"testing"

	"github.com/gogpu/frontend/resource"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayInOrder(t *testing.T) {
	b := New(nil, 4096)
	require.True(t, b.RecordResource(TypeResourceAllocate, Here("alloc"),
		ResourceCommand{Kind: resource.KindBuffer, ID: 3}))
	require.True(t, b.RecordResource(TypeResourceConstruct, Here("construct"),
		ResourceCommand{Kind: resource.KindBuffer, ID: 3}))
	require.True(t, b.RecordProfile(Tag{Description: "frame"}, ProfileBegin))
	require.True(t, b.RecordBlit(Here("blit"), BlitCommand{SrcTarget: 1, DstTarget: 2, DstAttachment: 1}))
	require.True(t, b.RecordProfile(Tag{Description: "frame"}, ProfileEnd))
	require.True(t, b.RecordResource(TypeResourceDestroy, Here("destroy"),
		ResourceCommand{Kind: resource.KindBuffer, ID: 3}))

	var types []Type
	r := NewReader(b)
	for rec, ok := r.Next(); ok; rec, ok = r.Next() {
		types = append(types, rec.Header.Type)
		switch rec.Header.Type {
		case TypeResourceAllocate, TypeResourceConstruct, TypeResourceDestroy:
			cmd, err := rec.Resource()
			require.NoError(t, err)
			assert.Equal(t, resource.ID(3), cmd.ID)
			assert.Equal(t, resource.KindBuffer, cmd.Kind)
		case TypeBlit:
			cmd, err := rec.Blit()
			require.NoError(t, err)
			assert.Equal(t, BlitCommand{SrcTarget: 1, DstTarget: 2, DstAttachment: 1}, cmd)
			assert.Equal(t, "blit", rec.Tag.Description)
		case TypeProfile:
			_, err := rec.Profile()
			require.NoError(t, err)
			assert.Equal(t, "frame", rec.Tag.Description)
		}
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []Type{
		TypeResourceAllocate, TypeResourceConstruct, TypeProfile,
		TypeBlit, TypeProfile, TypeResourceDestroy,
	}, types)

	r.Reset()
	rec, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, TypeResourceAllocate, rec.Header.Type)
}

func TestRecordResourceRejectsOtherTypes(t *testing.T) {
	b := New(nil, 256)
	assert.Panics(t, func() {
		b.RecordResource(TypeDraw, Tag{}, ResourceCommand{})
	})
}

func TestBufferUpdateFooter(t *testing.T) {
	b := New(nil, 1024)
	edits := []resource.Edit{
		{Sink: resource.SinkVertices, Offset: 0, Size: 64},
		{Sink: resource.SinkElements, Offset: 12, Size: 6},
	}
	require.True(t, b.RecordBufferUpdate(Here("update"), 7, edits))

	rec, ok := NewReader(b).Next()
	require.True(t, ok)
	cmd, got, err := rec.BufferEdits()
	require.NoError(t, err)
	assert.Equal(t, resource.ID(7), cmd.ID)
	assert.Equal(t, uint32(2), cmd.Edits)
	assert.Equal(t, edits, got)

	_, _, err = rec.TextureEdits()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestBufferUpdateWithoutEdits(t *testing.T) {
	b := New(nil, 256)
	require.True(t, b.RecordBufferUpdate(Tag{}, 7, nil))

	rec, ok := NewReader(b).Next()
	require.True(t, ok)
	_, got, err := rec.BufferEdits()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTextureUpdateFooter(t *testing.T) {
	tests := []struct {
		kind  resource.Kind
		edit  resource.TextureEdit
		bytes int
	}{
		{resource.KindTexture1D, resource.TextureEdit{Level: 1, Offset: [3]uint32{4}, Size: [3]uint32{8}}, 12},
		{resource.KindTexture2D, resource.TextureEdit{Level: 0, Offset: [3]uint32{1, 2}, Size: [3]uint32{3, 4}}, 20},
		{resource.KindTexture3D, resource.TextureEdit{Level: 2, Offset: [3]uint32{1, 2, 3}, Size: [3]uint32{4, 5, 6}}, 28},
		{resource.KindTextureCM, resource.TextureEdit{Level: 0, Offset: [3]uint32{0, 0, 5}, Size: [3]uint32{16, 16, 1}}, 28},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.bytes, TextureEditSize(tt.kind))

			b := New(nil, 1024)
			edits := []resource.TextureEdit{tt.edit, tt.edit}
			require.True(t, b.RecordTextureUpdate(Tag{}, tt.kind, 9, edits))

			rec, ok := NewReader(b).Next()
			require.True(t, ok)
			_, raw, err := rec.Update()
			require.NoError(t, err)
			assert.Len(t, raw, 2*tt.bytes)

			cmd, got, err := rec.TextureEdits()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cmd.Kind)
			assert.Equal(t, edits, got)
		})
	}
}

func TestTextureEditDimsPanicsForBuffers(t *testing.T) {
	assert.Panics(t, func() { TextureEditDims(resource.KindBuffer) })
}

func TestDrawUniformFooter(t *testing.T) {
	b := New(nil, 1024)
	draw := DrawCommand{
		State:         DefaultState(),
		Target:        1,
		Buffer:        2,
		Program:       3,
		Count:         6,
		Instances:     1,
		BaseVertex:    40,
		Primitive:     gputypes.PrimitiveTopologyTriangleList,
		DirtyUniforms: 0b101,
		UniformSize:   8,
	}
	draw.Buffers.Add(0)
	draw.Textures.Add(5)

	footer, ok := b.RecordDraw(Here("draw"), draw)
	require.True(t, ok)
	require.Len(t, footer, 8)
	binary.LittleEndian.PutUint32(footer, 11)
	binary.LittleEndian.PutUint32(footer[4:], 22)

	rec, ok := NewReader(b).Next()
	require.True(t, ok)
	got, uniforms, err := rec.Draw()
	require.NoError(t, err)
	assert.Equal(t, draw, got)
	assert.Equal(t, uint32(11), binary.LittleEndian.Uint32(uniforms))
	assert.Equal(t, uint32(22), binary.LittleEndian.Uint32(uniforms[4:]))

	_, err = rec.Clear()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestClearAndDownloadRoundTrip(t *testing.T) {
	b := New(nil, 2048)
	clr := ClearCommand{
		State:       DefaultState(),
		Target:      1,
		ClearDepth:  true,
		ClearColors: 1,
		Depth:       1,
	}
	clr.Buffers.Add(0)
	clr.Colors[0] = gputypes.Color{R: 1, G: 0.5, B: 0.25, A: 1}
	require.True(t, b.RecordClear(Here("clear"), clr))

	dl := DownloadCommand{SrcTarget: 1, OffsetX: 4, OffsetY: 8, Downloader: 6}
	require.True(t, b.RecordDownload(Here("download"), dl))

	r := NewReader(b)
	rec, ok := r.Next()
	require.True(t, ok)
	gotClear, err := rec.Clear()
	require.NoError(t, err)
	assert.Equal(t, clr, gotClear)

	rec, ok = r.Next()
	require.True(t, ok)
	gotDownload, err := rec.Download()
	require.NoError(t, err)
	assert.Equal(t, dl, gotDownload)

	_, ok = r.Next()
	assert.False(t, ok)
	assert.NoError(t, r.Err())
}

func TestRecordHelpersReportFull(t *testing.T) {
	b := New(nil, 32)
	assert.False(t, b.RecordClear(Tag{}, ClearCommand{}))
	_, ok := b.RecordDraw(Tag{}, DrawCommand{})
	assert.False(t, ok)
	assert.Zero(t, b.Len())
}

func TestReaderDetectsCorruption(t *testing.T) {
	b := New(nil, 256)
	require.True(t, b.RecordBlit(Tag{}, BlitCommand{}))
	binary.LittleEndian.PutUint32(b.Bytes()[12:16], 4096)

	r := NewReader(b)
	_, ok := r.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, r.Err(), ErrCorrupt)
}
