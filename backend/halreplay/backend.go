package halreplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/frontend/backend"
	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/resource"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Replay errors.
var (
	// ErrNotConstructed is returned when a command uses a resource whose
	// construct command was not replayed.
	ErrNotConstructed = errors.New("halreplay: resource not constructed")

	// ErrConstructed is returned when a resource is constructed twice.
	ErrConstructed = errors.New("halreplay: resource already constructed")

	// ErrUnsupported is returned for commands the backend cannot replay.
	ErrUnsupported = errors.New("halreplay: unsupported command")

	// ErrUnbalancedProfile is returned when a profile scope is closed
	// without being opened.
	ErrUnbalancedProfile = errors.New("halreplay: unbalanced profile scope")
)

// DefaultName is the name reported by backends created with New.
const DefaultName = "halreplay"

func init() {
	backend.Register(backend.NameNoop, func() (backend.Backend, error) {
		return OpenNoop()
	})
}

// deviceBuffer holds one device buffer per non-empty sink.
type deviceBuffer struct {
	sinks [resource.NumSinks]hal.Buffer
	sizes [resource.NumSinks]uint64
}

type scope struct {
	label string
	start time.Time
}

// Backend replays command streams onto a wgpu HAL device. It creates one
// device buffer per non-empty sink of every constructed resource.Buffer
// and uploads only the edited byte ranges on update.
//
// Backend is not safe for concurrent use.
type Backend struct {
	name    string
	device  hal.Device
	queue   hal.Queue
	logger  *slog.Logger
	release func()

	buffers  map[resource.ID]*deviceBuffer
	textures map[resource.ID]hal.Texture
	scopes   []scope
	scratch  []byte
	stats    Stats
	closed   bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default is the package logger set with
// SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithName sets the name returned by Name.
func WithName(name string) Option {
	return func(b *Backend) {
		b.name = name
	}
}

// New creates a Backend replaying onto device and queue. The caller keeps
// ownership of both.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Backend {
	b := &Backend{
		name:     DefaultName,
		device:   device,
		queue:    queue,
		logger:   slogger(),
		buffers:  make(map[resource.ID]*deviceBuffer),
		textures: make(map[resource.ID]hal.Texture),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OpenNoop creates a Backend on a device of the wgpu noop HAL. The noop
// device keeps buffer contents in memory, so uploads can be inspected
// with Device().MapBuffer. Close destroys the device.
func OpenNoop(opts ...Option) (*Backend, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("halreplay: create noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("halreplay: noop instance has no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halreplay: open noop device: %w", err)
	}

	b := New(open.Device, open.Queue, append([]Option{WithName(backend.NameNoop)}, opts...)...)
	b.release = func() {
		open.Device.Destroy()
		instance.Destroy()
	}
	b.logger.Info("halreplay: noop device opened", "adapter", adapters[0].Info.Name)
	return b, nil
}

// Name returns the backend name.
func (b *Backend) Name() string { return b.name }

// Device returns the HAL device.
func (b *Backend) Device() hal.Device { return b.device }

// Stats returns replay counters.
func (b *Backend) Stats() Stats { return b.stats }

// DeviceBuffer returns the device buffer backing one sink of a Buffer and
// its size in bytes.
func (b *Backend) DeviceBuffer(id resource.ID, sink resource.Sink) (hal.Buffer, uint64, bool) {
	db, ok := b.buffers[id]
	if !ok || !sink.Valid() || db.sinks[sink] == nil {
		return nil, 0, false
	}
	return db.sinks[sink], db.sizes[sink], true
}

// DeviceTexture returns the device texture of a constructed Texture.
func (b *Backend) DeviceTexture(id resource.ID) (hal.Texture, bool) {
	t, ok := b.textures[id]
	return t, ok
}

// Process replays stream in recording order.
func (b *Backend) Process(ctx context.Context, stream *command.Reader, res backend.Resolver) error {
	if b.closed {
		return backend.ErrClosed
	}
	for rec, ok := stream.Next(); ok; rec, ok = stream.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.replay(rec, res); err != nil {
			return fmt.Errorf("halreplay: %v: %w", rec, err)
		}
	}
	return stream.Err()
}

func (b *Backend) replay(rec command.Record, res backend.Resolver) error {
	switch rec.Header.Type {
	case command.TypeResourceAllocate:
		cmd, err := rec.Resource()
		if err != nil {
			return err
		}
		b.logger.Debug("halreplay: allocate", "kind", cmd.Kind, "id", cmd.ID)
		return nil
	case command.TypeResourceConstruct:
		return b.construct(rec, res)
	case command.TypeResourceUpdate:
		return b.update(rec, res)
	case command.TypeResourceDestroy:
		return b.destroy(rec)
	case command.TypeDraw:
		return b.draw(rec, res)
	case command.TypeClear:
		return b.clear(rec, res)
	case command.TypeBlit:
		return b.blit(rec, res)
	case command.TypeDownload:
		return b.download(rec, res)
	case command.TypeProfile:
		return b.profile(rec)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupported, rec.Header.Type)
	}
}

// Close destroys every device object and, for OpenNoop backends, the
// device. Close is idempotent.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	for id, db := range b.buffers {
		b.destroyBuffer(db)
		delete(b.buffers, id)
	}
	for id, t := range b.textures {
		b.device.DestroyTexture(t)
		delete(b.textures, id)
	}
	b.stats.Textures = 0
	if b.release != nil {
		b.release()
		b.release = nil
	}
	b.closed = true
	return nil
}
