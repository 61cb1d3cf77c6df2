package frontend

import (
	"log/slog"
	"testing"

	"github.com/gogpu/frontend/region"
)

// mockAllocator is a command buffer allocator for DI testing.
type mockAllocator struct {
	allocated   int
	deallocated int
}

func (m *mockAllocator) Allocate(size int) []byte {
	m.allocated += size
	return make([]byte, size)
}

func (m *mockAllocator) Deallocate(block []byte) {
	m.deallocated += len(block)
}

// TestNewDefault tests the default options of New.
func TestNewDefault(t *testing.T) {
	c := New()
	defer c.Close()

	if c.opts.commandBufferSize != DefaultCommandBufferSize {
		t.Errorf("commandBufferSize = %d, want %d", c.opts.commandBufferSize, DefaultCommandBufferSize)
	}
	if c.opts.policy != region.FirstFit {
		t.Errorf("policy = %v, want FirstFit", c.opts.policy)
	}
	if c.opts.formatCacheLimit != DefaultFormatCacheLimit {
		t.Errorf("formatCacheLimit = %d, want %d", c.opts.formatCacheLimit, DefaultFormatCacheLimit)
	}
	if c.logger == nil {
		t.Error("logger is nil, expected the package logger")
	}
	if c.recording().Size() != DefaultCommandBufferSize {
		t.Errorf("command buffer size = %d, want %d", c.recording().Size(), DefaultCommandBufferSize)
	}
}

// TestWithAllocator tests dependency injection of the command buffer allocator.
func TestWithAllocator(t *testing.T) {
	mock := &mockAllocator{}

	c := New(WithAllocator(mock), WithCommandBufferSize(1024))
	if mock.allocated != 2*1024 {
		t.Errorf("allocated = %d, want %d", mock.allocated, 2*1024)
	}

	c.Close()
	if mock.deallocated != mock.allocated {
		t.Errorf("deallocated = %d, want %d", mock.deallocated, mock.allocated)
	}
}

// TestOptionsIgnoreInvalid tests that invalid values keep the defaults.
func TestOptionsIgnoreInvalid(t *testing.T) {
	c := New(WithAllocator(nil), WithCommandBufferSize(-1), WithFormatCacheLimit(-5))
	defer c.Close()

	if c.opts.allocator == nil {
		t.Error("WithAllocator(nil) should keep the heap allocator")
	}
	if c.opts.commandBufferSize != DefaultCommandBufferSize {
		t.Errorf("commandBufferSize = %d, want default", c.opts.commandBufferSize)
	}
	if c.opts.formatCacheLimit != DefaultFormatCacheLimit {
		t.Errorf("formatCacheLimit = %d, want default", c.opts.formatCacheLimit)
	}
}

// TestWithRegionPolicy tests that arenas inherit the Context policy.
func TestWithRegionPolicy(t *testing.T) {
	c := New(WithRegionPolicy(region.BestFit))
	defer c.Close()

	a := c.CreateArena(quadFormat())
	if got := a.List(0).Policy(); got != region.BestFit {
		t.Errorf("arena policy = %v, want BestFit", got)
	}
}

// TestWithLogger tests that a nil logger falls back to the package logger.
func TestWithLogger(t *testing.T) {
	custom := slog.New(nopHandler{})
	c := New(WithLogger(custom))
	defer c.Close()
	if c.logger != custom {
		t.Error("WithLogger did not set the Context logger")
	}

	d := New(WithLogger(nil))
	defer d.Close()
	if d.logger == nil {
		t.Error("WithLogger(nil) left the Context without a logger")
	}
}
