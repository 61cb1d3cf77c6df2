package halreplay

import (
	"fmt"
	"slices"
	"time"

	"github.com/gogpu/frontend/backend"
	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/resource"
)

// Frame commands are validated against the replayed resource state and
// counted. Encoding native render passes is left to API specific backends.

func (b *Backend) draw(rec command.Record, res backend.Resolver) error {
	cmd, uniforms, err := rec.Draw()
	if err != nil {
		return err
	}
	if _, ok := b.buffers[cmd.Buffer]; !ok {
		return fmt.Errorf("%w: buffer %d", ErrNotConstructed, cmd.Buffer)
	}
	prog, err := backend.Resolve[*resource.Program](res, cmd.Program)
	if err != nil {
		return err
	}
	if _, err := backend.Resolve[*resource.Target](res, cmd.Target); err != nil {
		return err
	}
	for _, id := range cmd.Textures.Slice() {
		if _, ok := b.textures[id]; !ok {
			return fmt.Errorf("%w: texture %d", ErrNotConstructed, id)
		}
	}

	values := prog.SplitUniforms(cmd.DirtyUniforms, uniforms)
	b.stats.Draws++
	b.stats.UniformBytes += uint64(len(uniforms))
	b.logger.Debug("halreplay: draw",
		"program", prog.Name(), "count", cmd.Count, "instances", cmd.Instances,
		"base_vertex", cmd.BaseVertex, "offset", cmd.Offset, "uniforms", len(values),
		"tag", rec.Tag.Location())
	return nil
}

func (b *Backend) clear(rec command.Record, res backend.Resolver) error {
	cmd, err := rec.Clear()
	if err != nil {
		return err
	}
	target, err := backend.Resolve[*resource.Target](res, cmd.Target)
	if err != nil {
		return err
	}
	if !target.IsSwapchain() {
		for _, i := range cmd.Buffers.Slice() {
			if !target.Attachment(int(i)).IsValid() {
				return fmt.Errorf("%w: target %d has no attachment %d", ErrUnsupported, cmd.Target, i)
			}
		}
	}
	b.stats.Clears++
	return nil
}

func (b *Backend) blit(rec command.Record, res backend.Resolver) error {
	cmd, err := rec.Blit()
	if err != nil {
		return err
	}
	if _, err := b.attachment(res, cmd.SrcTarget, cmd.SrcAttachment); err != nil {
		return err
	}
	if _, err := backend.Resolve[*resource.Target](res, cmd.DstTarget); err != nil {
		return err
	}
	b.stats.Blits++
	return nil
}

// download delivers pixels from the CPU copy of the source attachment.
// Device textures are write-only from the HAL queue's point of view.
func (b *Backend) download(rec command.Record, res backend.Resolver) error {
	cmd, err := rec.Download()
	if err != nil {
		return err
	}
	dl, err := backend.Resolve[*resource.Downloader](res, cmd.Downloader)
	if err != nil {
		return err
	}
	tex, err := b.attachment(res, cmd.SrcTarget, cmd.SrcAttachment)
	if err != nil {
		return err
	}
	bpp := resource.BytesPerPixel(tex.Format())
	if bpp != resource.BytesPerPixel(dl.Format()) {
		return fmt.Errorf("%w: download %v from %v", ErrUnsupported, dl.Format(), tex.Format())
	}

	w, h := dl.Dimensions()
	ext := tex.LevelExtent(0)
	if uint64(cmd.OffsetX)+uint64(w) > uint64(ext.Width) || uint64(cmd.OffsetY)+uint64(h) > uint64(ext.Height) {
		return fmt.Errorf("%w: download %dx%d at (%d,%d) from %dx%d",
			ErrUnsupported, w, h, cmd.OffsetX, cmd.OffsetY, ext.Width, ext.Height)
	}

	row := int(w) * bpp
	need := row * int(h)
	b.scratch = slices.Grow(b.scratch[:0], need)[:need]
	level := tex.Level(0)
	for y := range int(h) {
		src := ((int(cmd.OffsetY)+y)*int(ext.Width) + int(cmd.OffsetX)) * bpp
		copy(b.scratch[y*row:], level[src:src+row])
	}
	if err := dl.Deliver(b.scratch); err != nil {
		return err
	}
	b.stats.Downloads++
	return nil
}

// attachment resolves a color attachment of a constructed texture target.
func (b *Backend) attachment(res backend.Resolver, targetID resource.ID, index uint32) (*resource.Texture, error) {
	target, err := backend.Resolve[*resource.Target](res, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsSwapchain() {
		return nil, fmt.Errorf("%w: read from swapchain target %d", ErrUnsupported, targetID)
	}
	id := target.Attachment(int(index))
	if !id.IsValid() {
		return nil, fmt.Errorf("%w: target %d has no attachment %d", ErrUnsupported, targetID, index)
	}
	if _, ok := b.textures[id]; !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrNotConstructed, id)
	}
	return backend.Resolve[*resource.Texture](res, id)
}

func (b *Backend) profile(rec command.Record) error {
	cmd, err := rec.Profile()
	if err != nil {
		return err
	}
	switch cmd.Scope {
	case command.ProfileBegin:
		b.scopes = append(b.scopes, scope{label: rec.Tag.Description, start: time.Now()})
		b.stats.ProfileScopes++
	case command.ProfileEnd:
		if len(b.scopes) == 0 {
			return ErrUnbalancedProfile
		}
		s := b.scopes[len(b.scopes)-1]
		b.scopes = b.scopes[:len(b.scopes)-1]
		b.logger.Debug("halreplay: profile", "scope", s.label, "elapsed", time.Since(s.start))
	default:
		return fmt.Errorf("%w: profile scope %d", ErrUnsupported, cmd.Scope)
	}
	return nil
}
