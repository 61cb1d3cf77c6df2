package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/frontend/arena"
	"github.com/gogpu/frontend/backend"
	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/internal/intern"
	"github.com/gogpu/frontend/resource"
	"github.com/gogpu/gputypes"
)

// Context is the recording side of the renderer. It owns every resource
// it creates, interns Formats, and records resource lifetime and frame
// commands into one of two command buffers. Submit hands the recorded
// buffer to a backend and swaps.
//
// A Context is not safe for concurrent use; one goroutine records a
// frame at a time.
type Context struct {
	opts   options
	logger *slog.Logger

	resources map[resource.ID]resource.Resource
	arenas    map[resource.ID]*arena.Arena
	nextID    resource.ID
	formats   *intern.Table[*resource.Format]
	swapchain *resource.Target

	buffers   [2]*command.Buffer
	destroys  [2][]resource.ID // released once their buffer was consumed
	destroyed map[resource.ID]struct{}
	current  int
	overflow bool
	closed   bool

	stats counters
}

type counters struct {
	frames         uint64
	commands       uint64
	commandBytes   uint64
	overflows      uint64
	editsRecorded  uint64
	editsOptimized uint64
	uploadBytes    uint64
}

// New creates a Context. The swapchain target is created and allocated
// up front.
func New(opts ...Option) *Context {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}

	c := &Context{
		opts:      o,
		logger:    o.logger,
		resources: make(map[resource.ID]resource.Resource),
		arenas:    make(map[resource.ID]*arena.Arena),
		destroyed: make(map[resource.ID]struct{}),
		formats:   intern.New((*resource.Format).Equal, o.formatCacheLimit),
	}
	for i := range c.buffers {
		c.buffers[i] = command.New(o.allocator, o.commandBufferSize)
	}

	c.swapchain = resource.NewSwapchainTarget(c.newID())
	c.add(c.swapchain, command.Here("swapchain"))
	return c
}

// Close returns the command buffers to the allocator. Resources stay
// readable; nothing can be recorded or submitted afterwards.
func (c *Context) Close() {
	if c.closed {
		return
	}
	for _, b := range c.buffers {
		b.Close()
	}
	c.closed = true
}

func (c *Context) newID() resource.ID {
	id := c.nextID
	if !id.IsValid() {
		panic("frontend: resource IDs exhausted")
	}
	c.nextID++
	return id
}

// recording returns the command buffer of the frame being recorded.
func (c *Context) recording() *command.Buffer {
	return c.buffers[c.current]
}

// recorded notes the outcome of a record helper. A failed record marks the
// frame so that Submit reports ErrCommandBufferFull.
func (c *Context) recorded(ok bool, typ command.Type, tag command.Tag) bool {
	if !ok {
		if !c.overflow {
			c.logger.Warn("frontend: command buffer full",
				"type", typ.String(),
				"tag", tag.String(),
				"used", c.recording().Used(),
				"size", c.recording().Size())
		}
		c.overflow = true
	}
	return ok
}

// add registers r and records its allocation.
func (c *Context) add(r resource.Resource, tag command.Tag) {
	c.resources[r.ID()] = r
	c.recordResource(command.TypeResourceAllocate, r, tag)
}

func (c *Context) recordResource(typ command.Type, r resource.Resource, tag command.Tag) bool {
	ok := c.recording().RecordResource(typ, tag, command.ResourceCommand{Kind: r.Kind(), ID: r.ID()})
	return c.recorded(ok, typ, tag)
}

// Intern returns the canonical Format structurally equal to f, so that
// identical Formats share one instance. f must be finalized.
func (c *Context) Intern(f *resource.Format) *resource.Format {
	canonical, hit := c.formats.Intern(f.Hash(), f)
	if !hit {
		c.logger.Debug("frontend: format interned", "format", f.String(), "hash", f.Hash())
	}
	return canonical
}

// Resolve returns the live resource with the given ID. Destroyed resources
// stay resolvable until the frame that destroyed them was submitted.
func (c *Context) Resolve(id resource.ID) (resource.Resource, bool) {
	r, ok := c.resources[id]
	return r, ok
}

// Swapchain returns the target presenting to the window.
func (c *Context) Swapchain() *resource.Target {
	return c.swapchain
}

// CreateBuffer creates a Buffer with the interned form of format.
func (c *Context) CreateBuffer(format *resource.Format) *resource.Buffer {
	b := resource.NewBuffer(c.newID())
	b.RecordFormat(c.Intern(format))
	c.add(b, command.At(1, "create buffer"))
	return b
}

// CreateArena creates an Arena over a new Buffer with the interned form
// of format. The Arena uses the Context's region policy and logger.
func (c *Context) CreateArena(format *resource.Format, opts ...arena.Option) *arena.Arena {
	opts = append([]arena.Option{
		arena.WithPolicy(c.opts.policy),
		arena.WithLogger(c.logger),
	}, opts...)
	a := arena.New(c.newID(), c.Intern(format), opts...)
	c.arenas[a.Buffer().ID()] = a
	c.add(a.Buffer(), command.At(1, "create arena"))
	return a
}

// CreateTexture creates a texture of the given kind.
func (c *Context) CreateTexture(kind resource.Kind, desc resource.TextureDescriptor) (*resource.Texture, error) {
	t, err := resource.NewTexture(c.nextID, kind, desc)
	if err != nil {
		return nil, err
	}
	c.newID()
	c.add(t, command.At(1, "create texture"))
	return t, nil
}

// CreateTarget creates an off-screen render target. Attach textures before
// initializing it.
func (c *Context) CreateTarget() *resource.Target {
	t := resource.NewTarget(c.newID())
	c.add(t, command.At(1, "create target"))
	return t
}

// CreateProgram creates a program with the given uniform layout.
func (c *Context) CreateProgram(name string, uniforms []resource.Uniform) (*resource.Program, error) {
	p, err := resource.NewProgram(c.nextID, name, uniforms)
	if err != nil {
		return nil, err
	}
	c.newID()
	c.add(p, command.At(1, "create program "+name))
	return p, nil
}

// CreateDownloader creates a read-back destination for a width by height
// rectangle.
func (c *Context) CreateDownloader(format gputypes.TextureFormat, width, height uint32) (*resource.Downloader, error) {
	d, err := resource.NewDownloader(c.nextID, format, width, height)
	if err != nil {
		return nil, err
	}
	c.newID()
	c.add(d, command.At(1, "create downloader"))
	return d, nil
}

// Initialize records the construction of r. The backend uploads its whole
// contents, so pending edits are dropped. It panics if r does not belong
// to the Context or is a Buffer without Format.
func (c *Context) Initialize(r resource.Resource) bool {
	return c.initialize(r, command.At(1, "initialize "+r.Kind().String()))
}

// InitializeBuffer records the construction of b.
func (c *Context) InitializeBuffer(b *resource.Buffer) bool {
	return c.initialize(b, command.At(1, "initialize buffer"))
}

// InitializeTexture records the construction of t.
func (c *Context) InitializeTexture(t *resource.Texture) bool {
	return c.initialize(t, command.At(1, "initialize texture"))
}

func (c *Context) initialize(r resource.Resource, tag command.Tag) bool {
	c.mustOwn(r)
	switch r := r.(type) {
	case *resource.Buffer:
		r.Validate()
		r.ClearEdits()
	case *resource.Texture:
		r.ClearEdits()
	}
	return c.recordResource(command.TypeResourceConstruct, r, tag)
}

// UpdateBuffer optimises the pending edits of b and records an update
// carrying them. On success the edits are cleared; when the command
// buffer is full they are kept for the next frame and false is returned.
// A Buffer without edits records nothing.
func (c *Context) UpdateBuffer(b *resource.Buffer) bool {
	c.mustOwn(b)
	recorded := len(b.Edits())
	if recorded == 0 {
		return true
	}
	b.OptimizeEdits()
	edits := b.Edits()
	c.logger.Debug("frontend: edits optimised",
		"buffer", b.ID(), "recorded", recorded, "kept", len(edits), "bytes", b.BytesForEdits())

	tag := command.At(1, "update buffer")
	if !c.recorded(c.recording().RecordBufferUpdate(tag, b.ID(), edits), command.TypeResourceUpdate, tag) {
		return false
	}
	c.stats.editsRecorded += uint64(recorded)
	c.stats.editsOptimized += uint64(recorded - len(edits))
	c.stats.uploadBytes += b.BytesForEdits()
	b.ClearEdits()
	return true
}

// UpdateArena records the pending edits of the Arena's Buffer.
func (c *Context) UpdateArena(a *arena.Arena) bool {
	return c.UpdateBuffer(a.Buffer())
}

// UpdateTexture is UpdateBuffer for textures.
func (c *Context) UpdateTexture(t *resource.Texture) bool {
	c.mustOwn(t)
	recorded := len(t.Edits())
	if recorded == 0 {
		return true
	}
	t.OptimizeEdits()
	edits := t.Edits()

	tag := command.At(1, "update texture")
	ok := c.recording().RecordTextureUpdate(tag, t.Kind(), t.ID(), edits)
	if !c.recorded(ok, command.TypeResourceUpdate, tag) {
		return false
	}
	c.stats.editsRecorded += uint64(recorded)
	c.stats.editsOptimized += uint64(recorded - len(edits))
	c.stats.uploadBytes += t.BytesForEdits()
	t.ClearEdits()
	return true
}

// DestroyResource records the destruction of the resource with the given
// ID. The resource stays resolvable until the frame is submitted, but can
// no longer be used in commands or destroyed again. The swapchain target
// cannot be destroyed.
func (c *Context) DestroyResource(id resource.ID) error {
	r, ok := c.resources[id]
	if _, pending := c.destroyed[id]; !ok || pending {
		return fmt.Errorf("%w: %d", ErrUnknownResource, id)
	}
	if r == resource.Resource(c.swapchain) {
		return fmt.Errorf("frontend: the swapchain target cannot be destroyed")
	}
	if !c.recordResource(command.TypeResourceDestroy, r, command.At(1, "destroy "+r.Kind().String())) {
		return ErrCommandBufferFull
	}
	c.destroys[c.current] = append(c.destroys[c.current], id)
	c.destroyed[id] = struct{}{}
	return nil
}

// release removes the resources destroyed in buffer i from the table.
func (c *Context) release(i int) {
	for _, id := range c.destroys[i] {
		delete(c.resources, id)
		delete(c.arenas, id)
		delete(c.destroyed, id)
	}
	clear(c.destroys[i])
	c.destroys[i] = c.destroys[i][:0]
}

// Swap ends the frame being recorded and returns its command buffer for
// a consumer. Recording continues in the other buffer, which is reset;
// the resources destroyed in the frame it held are released. The returned
// buffer stays valid until the next Swap.
func (c *Context) Swap() *command.Buffer {
	done := c.recording()
	c.stats.frames++
	c.stats.commands += uint64(done.Len())
	c.stats.commandBytes += uint64(done.Used())
	if c.overflow {
		c.stats.overflows++
	}
	c.overflow = false

	c.current ^= 1
	c.release(c.current)
	c.recording().Reset()
	return done
}

// Submit replays the frame being recorded into b, then swaps. It returns
// the backend's error, or ErrCommandBufferFull when a command of the frame
// could not be recorded.
func (c *Context) Submit(ctx context.Context, b backend.Backend) error {
	if c.closed {
		return ErrClosed
	}
	overflow := c.overflow
	frame := c.current
	buf := c.Swap()

	err := b.Process(ctx, command.NewReader(buf), c)
	c.release(frame)
	if err != nil {
		return fmt.Errorf("frontend: submit to %s: %w", b.Name(), err)
	}
	if overflow {
		return ErrCommandBufferFull
	}
	return nil
}

// Validate checks the region invariants of every Arena.
func (c *Context) Validate() error {
	var errs []error
	for id, a := range c.arenas {
		if err := a.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("arena %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Context) mustOwn(r resource.Resource) {
	if owned, ok := c.resources[r.ID()]; !ok || owned != r {
		panic(fmt.Sprintf("frontend: %v %d does not belong to this Context", r.Kind(), r.ID()))
	}
	if _, pending := c.destroyed[r.ID()]; pending {
		panic(fmt.Sprintf("frontend: %v %d is destroyed", r.Kind(), r.ID()))
	}
}
