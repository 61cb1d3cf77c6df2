package halreplay

import (
	"fmt"
	"slices"

	"github.com/gogpu/frontend/backend"
	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyAlignment is the alignment WriteBuffer requires for offsets and
// sizes.
const copyAlignment = 4

func alignUp4(n uint64) uint64 {
	return (n + copyAlignment - 1) &^ (copyAlignment - 1)
}

func (b *Backend) construct(rec command.Record, res backend.Resolver) error {
	cmd, err := rec.Resource()
	if err != nil {
		return err
	}
	switch {
	case cmd.Kind == resource.KindBuffer:
		buf, err := backend.Resolve[*resource.Buffer](res, cmd.ID)
		if err != nil {
			return err
		}
		return b.constructBuffer(buf)
	case cmd.Kind.IsTexture():
		t, err := backend.Resolve[*resource.Texture](res, cmd.ID)
		if err != nil {
			return err
		}
		return b.constructTexture(t)
	default:
		// Targets, programs and downloaders have no device object here.
		if _, ok := res.Resolve(cmd.ID); !ok {
			return fmt.Errorf("%w: %d", backend.ErrUnknownResource, cmd.ID)
		}
		return nil
	}
}

func (b *Backend) constructBuffer(buf *resource.Buffer) error {
	if _, dup := b.buffers[buf.ID()]; dup {
		return fmt.Errorf("%w: buffer %d", ErrConstructed, buf.ID())
	}
	db := &deviceBuffer{}
	b.buffers[buf.ID()] = db
	for i := range resource.NumSinks {
		if err := b.recreate(buf, db, resource.Sink(i)); err != nil {
			return err
		}
	}
	b.logger.Debug("halreplay: buffer constructed",
		"id", buf.ID(), "elements", db.sizes[resource.SinkElements],
		"vertices", db.sizes[resource.SinkVertices], "instances", db.sizes[resource.SinkInstances])
	return nil
}

// recreate replaces the device buffer of one sink with one sized for the
// current store and uploads the whole store.
func (b *Backend) recreate(buf *resource.Buffer, db *deviceBuffer, sink resource.Sink) error {
	if old := db.sinks[sink]; old != nil {
		b.device.DestroyBuffer(old)
		b.stats.Buffers--
		b.stats.DeviceBytes -= db.sizes[sink]
		db.sinks[sink], db.sizes[sink] = nil, 0
	}
	store := buf.Store(sink)
	if len(store) == 0 {
		return nil
	}

	size := alignUp4(uint64(len(store)))
	hb, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("buffer %d %v", buf.ID(), sink),
		Size:  size,
		Usage: buf.SinkUsage(sink),
	})
	if err != nil {
		return fmt.Errorf("create %v buffer: %w", sink, err)
	}
	db.sinks[sink], db.sizes[sink] = hb, size
	b.stats.Buffers++
	b.stats.DeviceBytes += size
	return b.write(hb, 0, store)
}

// write uploads data at offset, zero padding its tail to copyAlignment.
// Callers pass 4-byte aligned offsets.
func (b *Backend) write(hb hal.Buffer, offset uint64, data []byte) error {
	if rem := len(data) % copyAlignment; rem != 0 {
		b.scratch = append(b.scratch[:0], data...)
		for range copyAlignment - rem {
			b.scratch = append(b.scratch, 0)
		}
		data = b.scratch
	}
	if err := b.queue.WriteBuffer(hb, offset, data); err != nil {
		return fmt.Errorf("write %d bytes at %d: %w", len(data), offset, err)
	}
	b.stats.Writes++
	b.stats.UploadedBytes += uint64(len(data))
	return nil
}

func (b *Backend) update(rec command.Record, res backend.Resolver) error {
	cmd, _, err := rec.Update()
	if err != nil {
		return err
	}
	if cmd.Kind.IsTexture() {
		return b.updateTexture(rec, res)
	}

	_, edits, err := rec.BufferEdits()
	if err != nil {
		return err
	}
	buf, err := backend.Resolve[*resource.Buffer](res, cmd.ID)
	if err != nil {
		return err
	}
	db, ok := b.buffers[cmd.ID]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrNotConstructed, cmd.ID)
	}

	// A sink whose store outgrew its device buffer is recreated once and
	// fully uploaded; its remaining edits are then redundant.
	var fresh [resource.NumSinks]bool
	for _, e := range edits {
		if !e.Sink.Valid() {
			return fmt.Errorf("%w: edit of sink %d", ErrUnsupported, e.Sink)
		}
		if fresh[e.Sink] {
			continue
		}
		store := buf.Store(e.Sink)
		if db.sinks[e.Sink] == nil || uint64(len(store)) > db.sizes[e.Sink] {
			if err := b.recreate(buf, db, e.Sink); err != nil {
				return err
			}
			fresh[e.Sink] = true
			b.stats.Recreated++
			b.logger.Debug("halreplay: device buffer recreated",
				"id", cmd.ID, "sink", e.Sink, "size", db.sizes[e.Sink])
			continue
		}

		start := uint64(e.Offset) &^ (copyAlignment - 1)
		end := min(alignUp4(uint64(e.End())), uint64(len(store)))
		if start >= end {
			continue
		}
		if err := b.write(db.sinks[e.Sink], start, store[start:end]); err != nil {
			return fmt.Errorf("%v: %w", e, err)
		}
	}
	return nil
}

func (b *Backend) constructTexture(t *resource.Texture) error {
	if _, dup := b.textures[t.ID()]; dup {
		return fmt.Errorf("%w: texture %d", ErrConstructed, t.ID())
	}
	size := t.Size()
	ht, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label: fmt.Sprintf("%v %d", t.Kind(), t.ID()),
		Size: hal.Extent3D{
			Width:              size.Width,
			Height:             size.Height,
			DepthOrArrayLayers: size.DepthOrArrayLayers,
		},
		MipLevelCount: t.Levels(),
		SampleCount:   1,
		Dimension:     t.Dimension(),
		Format:        t.Format(),
		Usage:         t.TextureUsage(),
	})
	if err != nil {
		return fmt.Errorf("create texture: %w", err)
	}
	b.textures[t.ID()] = ht
	b.stats.Textures++

	for level := range t.Levels() {
		e := t.LevelExtent(level)
		box := resource.TextureEdit{
			Level: level,
			Size:  [3]uint32{e.Width, e.Height, e.DepthOrArrayLayers},
		}
		if err := b.writeTexture(t, ht, box); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) updateTexture(rec command.Record, res backend.Resolver) error {
	cmd, edits, err := rec.TextureEdits()
	if err != nil {
		return err
	}
	t, err := backend.Resolve[*resource.Texture](res, cmd.ID)
	if err != nil {
		return err
	}
	ht, ok := b.textures[cmd.ID]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrNotConstructed, cmd.ID)
	}
	for _, e := range edits {
		if err := b.writeTexture(t, ht, e); err != nil {
			return err
		}
	}
	return nil
}

// writeTexture uploads one box of a mip level. Components beyond the
// texture's dimension may be zero and count as one.
func (b *Backend) writeTexture(t *resource.Texture, ht hal.Texture, e resource.TextureEdit) error {
	if e.Level >= t.Levels() {
		return fmt.Errorf("%w: mip level %d of %d", ErrUnsupported, e.Level, t.Levels())
	}
	ext := t.LevelExtent(e.Level)
	limits := [3]uint32{ext.Width, ext.Height, ext.DepthOrArrayLayers}
	var size [3]uint32
	for axis := range 3 {
		size[axis] = max(e.Size[axis], 1)
		if uint64(e.Offset[axis])+uint64(size[axis]) > uint64(limits[axis]) {
			return fmt.Errorf("%w: texture edit %v outside level extent %v", ErrUnsupported, e, limits)
		}
	}

	bpp := uint32(resource.BytesPerPixel(t.Format()))
	row := size[0] * bpp
	need := int(row * size[1] * size[2])
	b.scratch = slices.Grow(b.scratch[:0], need)[:need]

	level := t.Level(e.Level)
	n := 0
	for z := range size[2] {
		for y := range size[1] {
			src := (((e.Offset[2]+z)*ext.Height+e.Offset[1]+y)*ext.Width + e.Offset[0]) * bpp
			n += copy(b.scratch[n:], level[src:src+row])
		}
	}

	err := b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  ht,
			MipLevel: e.Level,
			Origin:   hal.Origin3D{X: e.Offset[0], Y: e.Offset[1], Z: e.Offset[2]},
			Aspect:   gputypes.TextureAspectAll,
		},
		b.scratch,
		&hal.ImageDataLayout{BytesPerRow: row, RowsPerImage: size[1]},
		&hal.Extent3D{Width: size[0], Height: size[1], DepthOrArrayLayers: size[2]},
	)
	if err != nil {
		return fmt.Errorf("write texture level %d: %w", e.Level, err)
	}
	b.stats.Writes++
	b.stats.UploadedBytes += uint64(need)
	return nil
}

func (b *Backend) destroy(rec command.Record) error {
	cmd, err := rec.Resource()
	if err != nil {
		return err
	}
	switch {
	case cmd.Kind == resource.KindBuffer:
		if db, ok := b.buffers[cmd.ID]; ok {
			b.destroyBuffer(db)
			delete(b.buffers, cmd.ID)
		}
	case cmd.Kind.IsTexture():
		if t, ok := b.textures[cmd.ID]; ok {
			b.device.DestroyTexture(t)
			delete(b.textures, cmd.ID)
			b.stats.Textures--
		}
	}
	b.logger.Debug("halreplay: destroy", "kind", cmd.Kind, "id", cmd.ID)
	return nil
}

func (b *Backend) destroyBuffer(db *deviceBuffer) {
	for i, hb := range db.sinks {
		if hb == nil {
			continue
		}
		b.device.DestroyBuffer(hb)
		b.stats.Buffers--
		b.stats.DeviceBytes -= db.sizes[i]
		db.sinks[i], db.sizes[i] = nil, 0
	}
}
