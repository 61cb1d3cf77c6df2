package frontend

import (
	"github.com/gogpu/frontend/arena"
	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/resource"
	"github.com/gogpu/gputypes"
)

// DrawCall describes one draw. Offsets and counts are in elements for
// indexed Formats and in vertices otherwise.
type DrawCall struct {
	Target   *resource.Target
	Buffer   *resource.Buffer
	Program  *resource.Program
	Textures []*resource.Texture

	// Buffers selects the target attachments written. Empty means
	// attachment 0.
	Buffers   command.Buffers
	State     command.State
	Primitive gputypes.PrimitiveTopology

	Count        uint32
	Offset       uint32
	Instances    uint32 // 0 draws one instance
	BaseVertex   uint32
	BaseInstance uint32
}

// ClearCall describes a clear of target attachments.
type ClearCall struct {
	Target *resource.Target

	// Buffers selects the attachments cleared. Empty means attachment 0.
	Buffers command.Buffers
	State   command.State

	// Colors holds one clear color per entry of Buffers. A nil entry
	// leaves that attachment's color untouched.
	Colors  []*gputypes.Color
	Depth   *float32
	Stencil *uint8
}

// Clear records a clear of the selected attachments.
func (c *Context) Clear(call ClearCall) bool {
	c.mustOwn(call.Target)
	cmd := command.ClearCommand{
		Buffers: call.Buffers,
		State:   call.State,
		Target:  call.Target.ID(),
	}
	if cmd.Buffers.Count == 0 {
		cmd.Buffers.Add(0)
	}
	for i, color := range call.Colors {
		if color == nil || i >= command.MaxDrawBuffers {
			continue
		}
		cmd.ClearColors |= 1 << i
		cmd.Colors[i] = *color
	}
	if call.Depth != nil {
		cmd.ClearDepth = true
		cmd.Depth = *call.Depth
	}
	if call.Stencil != nil {
		cmd.ClearStencil = true
		cmd.Stencil = *call.Stencil
	}

	tag := command.At(1, "clear")
	return c.recorded(c.recording().RecordClear(tag, cmd), command.TypeClear, tag)
}

// Draw records a draw. The program's dirty uniforms travel in the command
// footer and are marked clean once recorded.
func (c *Context) Draw(call DrawCall) bool {
	return c.draw(call, command.At(1, "draw"))
}

// DrawBlock records a draw of one arena Block. Buffer, counts and base
// offsets of call are taken from the Block.
func (c *Context) DrawBlock(call DrawCall, blk *arena.Block) bool {
	a := blk.Arena()
	format := a.Format()
	call.Buffer = a.Buffer()
	call.BaseVertex = blk.BaseVertex()
	if format.IsIndexed() {
		call.Count = blk.ElementCount()
		call.Offset = blk.BaseElement()
	} else {
		call.Count = blk.VertexCount()
		call.Offset = 0
	}
	if format.IsInstanced() {
		call.Instances = blk.InstanceCount()
		call.BaseInstance = blk.BaseInstance()
	}
	return c.draw(call, command.At(1, "draw block"))
}

func (c *Context) draw(call DrawCall, tag command.Tag) bool {
	c.mustOwn(call.Target)
	c.mustOwn(call.Buffer)
	c.mustOwn(call.Program)

	p := call.Program
	cmd := command.DrawCommand{
		Buffers:       call.Buffers,
		State:         call.State,
		Target:        call.Target.ID(),
		Buffer:        call.Buffer.ID(),
		Program:       p.ID(),
		Count:         call.Count,
		Offset:        call.Offset,
		Instances:     max(call.Instances, 1),
		BaseVertex:    call.BaseVertex,
		BaseInstance:  call.BaseInstance,
		Primitive:     call.Primitive,
		DirtyUniforms: p.DirtyUniforms(),
		UniformSize:   p.DirtyUniformSize(),
	}
	if cmd.Buffers.Count == 0 {
		cmd.Buffers.Add(0)
	}
	for _, t := range call.Textures {
		c.mustOwn(t)
		cmd.Textures.Add(t.ID())
	}

	footer, ok := c.recording().RecordDraw(tag, cmd)
	if !c.recorded(ok, command.TypeDraw, tag) {
		return false
	}
	p.FlushUniforms(footer)
	return true
}

// Blit records a copy from one target attachment to another.
func (c *Context) Blit(src *resource.Target, srcAttachment int, dst *resource.Target, dstAttachment int) bool {
	c.mustOwn(src)
	c.mustOwn(dst)
	tag := command.At(1, "blit")
	ok := c.recording().RecordBlit(tag, command.BlitCommand{
		SrcTarget:     src.ID(),
		SrcAttachment: uint32(srcAttachment),
		DstTarget:     dst.ID(),
		DstAttachment: uint32(dstAttachment),
	})
	return c.recorded(ok, command.TypeBlit, tag)
}

// Download records a read-back of the rectangle at (x, y) of a target
// attachment into d. The rectangle size is d's. d becomes Ready once the
// backend replayed the command.
func (c *Context) Download(src *resource.Target, attachment int, x, y uint32, d *resource.Downloader) bool {
	c.mustOwn(src)
	c.mustOwn(d)
	d.Reset()
	tag := command.At(1, "download")
	ok := c.recording().RecordDownload(tag, command.DownloadCommand{
		SrcTarget:     src.ID(),
		SrcAttachment: uint32(attachment),
		OffsetX:       x,
		OffsetY:       y,
		Downloader:    d.ID(),
	})
	return c.recorded(ok, command.TypeDownload, tag)
}

// Profile records the beginning of a profiling scope and returns the
// function recording its end:
//
//	defer ctx.Profile("shadow pass")()
func (c *Context) Profile(description string) func() {
	tag := command.At(1, description)
	ok := c.recording().RecordProfile(tag, command.ProfileBegin)
	if !c.recorded(ok, command.TypeProfile, tag) {
		return func() {}
	}
	return func() {
		end := command.At(1, description)
		c.recorded(c.recording().RecordProfile(end, command.ProfileEnd), command.TypeProfile, end)
	}
}
