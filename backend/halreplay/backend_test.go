package halreplay

import (
	"context"
	"testing"
	"unsafe"

	"github.com/gogpu/frontend/backend"
	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/resource"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// table is a Resolver over a map, standing in for a frontend context.
type table map[resource.ID]resource.Resource

func (t table) Resolve(id resource.ID) (resource.Resource, bool) {
	r, ok := t[id]
	return r, ok
}

func (t table) add(r resource.Resource) { t[r.ID()] = r }

func openNoop(t *testing.T) *Backend {
	t.Helper()
	b, err := OpenNoop()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func vertexFormat() *resource.Format {
	f := resource.NewFormat()
	f.RecordType(resource.BufferDynamic)
	f.RecordElementType(resource.ElementU16)
	f.RecordVertexStride(8)
	f.RecordVertexAttribute(resource.AttributeVec2F, 0)
	f.Finalize()
	return f
}

// deviceBytes reads back a noop device buffer.
func deviceBytes(t *testing.T, b *Backend, id resource.ID, sink resource.Sink) []byte {
	t.Helper()
	hb, size, ok := b.DeviceBuffer(id, sink)
	require.True(t, ok, "no device buffer for %d %v", id, sink)
	m, err := b.Device().MapBuffer(hb, 0, size)
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Device().UnmapBuffer(hb)) }()
	return append([]byte(nil), unsafe.Slice((*byte)(m.Ptr), size)...)
}

func process(t *testing.T, b *Backend, cmds *command.Buffer, res backend.Resolver) {
	t.Helper()
	require.NoError(t, b.Process(context.Background(), command.NewReader(cmds), res))
	cmds.Reset()
}

func construct(t *testing.T, cmds *command.Buffer, r resource.Resource) {
	t.Helper()
	require.True(t, cmds.RecordResource(command.TypeResourceConstruct, command.Here("construct"),
		command.ResourceCommand{Kind: r.Kind(), ID: r.ID()}))
}

func TestRegisteredAsNoop(t *testing.T) {
	assert.True(t, backend.IsRegistered(backend.NameNoop))
	b, err := backend.New(backend.NameNoop)
	require.NoError(t, err)
	assert.Equal(t, backend.NameNoop, b.Name())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "Close is idempotent")
}

func TestConstructUploadsStores(t *testing.T) {
	b := openNoop(t)
	res := table{}
	buf := resource.NewBuffer(1)
	buf.RecordFormat(vertexFormat())
	res.add(buf)

	verts := buf.MapVertices(16)
	for i := range verts {
		verts[i] = byte(i + 1)
	}
	buf.WriteElements([]byte{1, 0, 2, 0, 3, 0})

	cmds := command.New(nil, 4096)
	construct(t, cmds, buf)
	process(t, b, cmds, res)

	assert.Equal(t, verts, deviceBytes(t, b, 1, resource.SinkVertices))
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 0, 0}, deviceBytes(t, b, 1, resource.SinkElements),
		"device buffers are padded to 4 bytes")
	_, _, ok := b.DeviceBuffer(1, resource.SinkInstances)
	assert.False(t, ok, "empty sinks get no device buffer")

	s := b.Stats()
	assert.Equal(t, 2, s.Buffers)
	assert.Equal(t, uint64(24), s.DeviceBytes)
}

func TestUpdateUploadsOnlyEditedRanges(t *testing.T) {
	b := openNoop(t)
	res := table{}
	buf := resource.NewBuffer(1)
	buf.RecordFormat(vertexFormat())
	res.add(buf)
	buf.MapVertices(64)

	cmds := command.New(nil, 4096)
	construct(t, cmds, buf)
	process(t, b, cmds, res)
	before := b.Stats()

	store := buf.Vertices()
	for i := range store {
		store[i] = 0xEE
	}
	buf.RecordVerticesEdit(8, 8)
	buf.RecordVerticesEdit(10, 2)
	buf.OptimizeEdits()
	require.True(t, cmds.RecordBufferUpdate(command.Here("update"), 1, buf.Edits()))
	buf.ClearEdits()
	process(t, b, cmds, res)

	got := deviceBytes(t, b, 1, resource.SinkVertices)
	for i, v := range got {
		if i >= 8 && i < 16 {
			assert.Equal(t, byte(0xEE), v, "byte %d is inside the edit", i)
		} else {
			assert.Zero(t, v, "byte %d is outside the edit", i)
		}
	}

	after := b.Stats()
	assert.Equal(t, 1, after.Writes-before.Writes)
	assert.Equal(t, uint64(8), after.UploadedBytes-before.UploadedBytes)
}

func TestUpdateRecreatesGrownStore(t *testing.T) {
	b := openNoop(t)
	res := table{}
	buf := resource.NewBuffer(1)
	buf.RecordFormat(vertexFormat())
	res.add(buf)
	buf.MapVertices(16)

	cmds := command.New(nil, 4096)
	construct(t, cmds, buf)
	process(t, b, cmds, res)

	grown := buf.MapVertices(64)
	for i := range grown {
		grown[i] = 7
	}
	buf.RecordVerticesEdit(48, 16)
	buf.RecordVerticesEdit(0, 8)
	require.True(t, cmds.RecordBufferUpdate(command.Tag{}, 1, buf.Edits()))
	process(t, b, cmds, res)

	_, size, ok := b.DeviceBuffer(1, resource.SinkVertices)
	require.True(t, ok)
	assert.Equal(t, uint64(64), size)
	assert.Equal(t, grown, deviceBytes(t, b, 1, resource.SinkVertices))
	assert.Equal(t, 1, b.Stats().Recreated)
	assert.Equal(t, 1, b.Stats().Buffers)
}

func TestUpdateBeforeConstructFails(t *testing.T) {
	b := openNoop(t)
	res := table{}
	buf := resource.NewBuffer(1)
	buf.RecordFormat(vertexFormat())
	res.add(buf)

	cmds := command.New(nil, 1024)
	require.True(t, cmds.RecordBufferUpdate(command.Tag{}, 1, nil))
	err := b.Process(context.Background(), command.NewReader(cmds), res)
	assert.ErrorIs(t, err, ErrNotConstructed)
}

func TestConstructUnknownResource(t *testing.T) {
	b := openNoop(t)
	cmds := command.New(nil, 1024)
	require.True(t, cmds.RecordResource(command.TypeResourceConstruct, command.Tag{},
		command.ResourceCommand{Kind: resource.KindBuffer, ID: 42}))
	err := b.Process(context.Background(), command.NewReader(cmds), table{})
	assert.ErrorIs(t, err, backend.ErrUnknownResource)
}

func TestDestroyReleasesDeviceBuffers(t *testing.T) {
	b := openNoop(t)
	res := table{}
	buf := resource.NewBuffer(1)
	buf.RecordFormat(vertexFormat())
	buf.MapVertices(32)
	res.add(buf)

	cmds := command.New(nil, 4096)
	construct(t, cmds, buf)
	require.True(t, cmds.RecordResource(command.TypeResourceDestroy, command.Tag{},
		command.ResourceCommand{Kind: resource.KindBuffer, ID: 1}))
	process(t, b, cmds, res)

	_, _, ok := b.DeviceBuffer(1, resource.SinkVertices)
	assert.False(t, ok)
	assert.Zero(t, b.Stats().Buffers)
	assert.Zero(t, b.Stats().DeviceBytes)
}

func newTexture(t *testing.T, id resource.ID, w, h uint32) *resource.Texture {
	t.Helper()
	tex, err := resource.NewTexture(id, resource.KindTexture2D, resource.TextureDescriptor{
		Format: gputypes.TextureFormatRGBA8Unorm,
		Size:   gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		Levels: 1,
	})
	require.NoError(t, err)
	return tex
}

func TestTextureUpdate(t *testing.T) {
	b := openNoop(t)
	res := table{}
	tex := newTexture(t, 2, 4, 4)
	res.add(tex)

	cmds := command.New(nil, 4096)
	construct(t, cmds, tex)
	process(t, b, cmds, res)
	_, ok := b.DeviceTexture(2)
	require.True(t, ok)
	assert.Equal(t, 1, b.Stats().Textures)
	writes := b.Stats().Writes

	tex.RecordEdit(resource.TextureEdit{Offset: [3]uint32{1, 1, 0}, Size: [3]uint32{2, 2, 1}})
	require.True(t, cmds.RecordTextureUpdate(command.Tag{}, tex.Kind(), tex.ID(), tex.Edits()))
	process(t, b, cmds, res)
	assert.Equal(t, writes+1, b.Stats().Writes)
}

func TestDownloadFromAttachment(t *testing.T) {
	b := openNoop(t)
	res := table{}
	tex := newTexture(t, 2, 4, 4)
	level := tex.Level(0)
	for i := range level {
		level[i] = byte(i)
	}
	target := resource.NewTarget(3)
	target.AttachTexture(tex.ID())
	dl, err := resource.NewDownloader(4, gputypes.TextureFormatRGBA8Unorm, 2, 1)
	require.NoError(t, err)
	for _, r := range []resource.Resource{tex, target, dl} {
		res.add(r)
	}

	cmds := command.New(nil, 4096)
	construct(t, cmds, tex)
	construct(t, cmds, target)
	require.True(t, cmds.RecordDownload(command.Here("readback"), command.DownloadCommand{
		SrcTarget: 3, OffsetX: 1, OffsetY: 2, Downloader: 4,
	}))
	process(t, b, cmds, res)

	require.True(t, dl.Ready())
	// Row 2 starts at pixel 8; pixels 9 and 10 are bytes 36..44.
	assert.Equal(t, level[36:44], dl.Data())
	assert.Equal(t, 1, b.Stats().Downloads)
}

func TestDrawValidatesResources(t *testing.T) {
	b := openNoop(t)
	res := table{}
	buf := resource.NewBuffer(1)
	buf.RecordFormat(vertexFormat())
	buf.MapVertices(24)
	prog, err := resource.NewProgram(5, "flat", []resource.Uniform{{Name: "color", Size: 16}})
	require.NoError(t, err)
	target := resource.NewSwapchainTarget(6)
	for _, r := range []resource.Resource{buf, prog, target} {
		res.add(r)
	}

	draw := command.DrawCommand{
		State:         command.DefaultState(),
		Target:        6,
		Buffer:        1,
		Program:       5,
		Count:         3,
		Instances:     1,
		DirtyUniforms: 1,
		UniformSize:   16,
	}

	cmds := command.New(nil, 4096)
	_, ok := cmds.RecordDraw(command.Tag{}, draw)
	require.True(t, ok)
	err = b.Process(context.Background(), command.NewReader(cmds), res)
	assert.ErrorIs(t, err, ErrNotConstructed, "draw before construct")
	cmds.Reset()

	construct(t, cmds, buf)
	_, ok = cmds.RecordDraw(command.Tag{}, draw)
	require.True(t, ok)
	require.True(t, cmds.RecordClear(command.Tag{}, command.ClearCommand{Target: 6}))
	process(t, b, cmds, res)

	s := b.Stats()
	assert.Equal(t, 1, s.Draws)
	assert.Equal(t, 1, s.Clears)
	assert.Equal(t, uint64(16), s.UniformBytes)
}

func TestProfileScopes(t *testing.T) {
	b := openNoop(t)
	cmds := command.New(nil, 1024)
	require.True(t, cmds.RecordProfile(command.Tag{Description: "frame"}, command.ProfileBegin))
	require.True(t, cmds.RecordProfile(command.Tag{Description: "frame"}, command.ProfileEnd))
	process(t, b, cmds, table{})
	assert.Equal(t, 1, b.Stats().ProfileScopes)

	require.True(t, cmds.RecordProfile(command.Tag{}, command.ProfileEnd))
	err := b.Process(context.Background(), command.NewReader(cmds), table{})
	assert.ErrorIs(t, err, ErrUnbalancedProfile)
}

func TestProcessHonorsContext(t *testing.T) {
	b := openNoop(t)
	cmds := command.New(nil, 1024)
	require.True(t, cmds.RecordProfile(command.Tag{}, command.ProfileBegin))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Process(ctx, command.NewReader(cmds), table{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessAfterClose(t *testing.T) {
	b, err := OpenNoop()
	require.NoError(t, err)
	require.NoError(t, b.Close())
	err = b.Process(context.Background(), command.NewReader(command.New(nil, 64)), table{})
	assert.ErrorIs(t, err, backend.ErrClosed)
}

func TestStatsString(t *testing.T) {
	s := Stats{Buffers: 2, DeviceBytes: 4096, Writes: 3, UploadedBytes: 100, Draws: 1}
	assert.Equal(t, "Replay[2 buffers (4 KB), 0 textures, 3 writes (100 bytes), 0 recreated, 1 draws, 0 clears, 0 blits, 0 downloads]", s.String())
}
