package frontend

import (
	"log/slog"

	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/region"
)

// Defaults used by New.
const (
	// DefaultCommandBufferSize is the capacity of each of the two command
	// buffers.
	DefaultCommandBufferSize = command.DefaultCapacity

	// DefaultFormatCacheLimit is the soft limit of the format interning
	// table.
	DefaultFormatCacheLimit = 256
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx := frontend.New(
//		frontend.WithCommandBufferSize(4<<20),
//		frontend.WithRegionPolicy(region.BestFit),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	commandBufferSize int
	allocator         command.Allocator
	logger            *slog.Logger
	policy            region.Policy
	formatCacheLimit  int
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		commandBufferSize: DefaultCommandBufferSize,
		allocator:         command.HeapAllocator{},
		logger:            nil, // Will be set to Logger() if nil
		policy:            region.FirstFit,
		formatCacheLimit:  DefaultFormatCacheLimit,
	}
}

// WithCommandBufferSize sets the capacity in bytes of each command buffer.
// Values below 1 keep the default.
func WithCommandBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.commandBufferSize = n
		}
	}
}

// WithAllocator sets the allocator both command buffers take their
// backing memory from.
func WithAllocator(a command.Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.allocator = a
		}
	}
}

// WithLogger sets the logger of the Context and of the arenas it creates.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegionPolicy sets the fit policy of arena region lists.
func WithRegionPolicy(p region.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithFormatCacheLimit sets the soft limit of the format interning table.
// Zero means unlimited.
func WithFormatCacheLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.formatCacheLimit = n
		}
	}
}
