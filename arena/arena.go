// Package arena batches geometry that shares one Format into a single
// Buffer.
//
// An Arena owns a resource.Buffer and one region.List per sink. Each Block
// handed out by the Arena owns at most one Range per sink; mapping a Block
// allocates or resizes its Range and records an edit covering only that
// Range, so independent Blocks never disturb each other's bytes:
//
//	a := arena.New(id, format)
//	blk := a.Block()
//	copy(blk.MapVertices(4*stride), quad)
//	copy(blk.MapElements(6*2), indices)
//	draw(blk.BaseVertex(), blk.BaseElement())
//	blk.Destroy()
//
// Backends see one Buffer per Arena and never allocate regions themselves.
// Nothing in this package is safe for concurrent use.
package arena

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gogpu/frontend/region"
	"github.com/gogpu/frontend/resource"
)

// ErrStoreTooSmall is returned by Validate when a Buffer store does not
// cover its region address space.
var ErrStoreTooSmall = errors.New("arena: buffer store smaller than address space")

// Arena sub-allocates one Buffer among many Blocks.
type Arena struct {
	buffer *resource.Buffer
	lists  [resource.NumSinks]*region.List
	blocks int
	logger *slog.Logger
}

// New creates an Arena whose Buffer has the given ID and Format. The Format
// must be finalized.
func New(id resource.ID, format *resource.Format, opts ...Option) *Arena {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	buffer := resource.NewBuffer(id)
	buffer.RecordFormat(format)

	a := &Arena{
		buffer: buffer,
		logger: o.logger,
	}
	for sink := range a.lists {
		a.lists[sink] = region.New(region.WithPolicy(o.policy), region.WithCapacity(o.capacity))
	}
	return a
}

// Block returns a new, empty Block bound to the Arena.
func (a *Arena) Block() *Block {
	a.blocks++
	b := &Block{arena: a}
	for sink := range b.ranges {
		b.ranges[sink] = unallocated
	}
	return b
}

// Buffer returns the Buffer shared by all Blocks.
func (a *Arena) Buffer() *resource.Buffer {
	return a.buffer
}

// Format returns the Format of the Buffer.
func (a *Arena) Format() *resource.Format {
	return a.buffer.Format()
}

// Blocks returns the number of Blocks not yet destroyed.
func (a *Arena) Blocks() int {
	return a.blocks
}

// List returns the region list of a sink. It is exposed for inspection;
// mutating it directly corrupts the Arena.
func (a *Arena) List(sink resource.Sink) *region.List {
	return a.lists[sink]
}

// Validate checks every region list and that each Buffer store covers its
// address space.
func (a *Arena) Validate() error {
	for sink, l := range a.lists {
		s := resource.Sink(sink)
		if err := l.Validate(); err != nil {
			return fmt.Errorf("arena: %v: %w", s, err)
		}
		if n := len(a.buffer.Store(s)); n < int(l.Size()) {
			return fmt.Errorf("%w: %v store is %d bytes, address space %d", ErrStoreTooSmall, s, n, l.Size())
		}
	}
	return nil
}

// Stats describes the allocation state of an Arena.
type Stats struct {
	Blocks int
	Sinks  [resource.NumSinks]region.Stats
}

// Stats returns per-sink region statistics.
func (a *Arena) Stats() Stats {
	s := Stats{Blocks: a.blocks}
	for sink, l := range a.lists {
		s.Sinks[sink] = l.Stats()
	}
	return s
}

// String returns a human-readable representation of the statistics.
func (s Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Arena{blocks: %d", s.Blocks)
	for sink, rs := range s.Sinks {
		fmt.Fprintf(&sb, ", %v: %v", resource.Sink(sink), rs)
	}
	sb.WriteString("}")
	return sb.String()
}

// unit returns the stride or element size of sink, panicking if the
// Format has no such sink.
func (a *Arena) unit(sink resource.Sink) uint32 {
	f := a.buffer.Format()
	switch sink {
	case resource.SinkVertices:
		return f.VertexStride()
	case resource.SinkElements:
		if !f.IsIndexed() {
			panic("arena: format is not indexed")
		}
		return f.ElementSize()
	case resource.SinkInstances:
		if !f.IsInstanced() {
			panic("arena: format is not instanced")
		}
		return f.InstanceStride()
	default:
		panic(fmt.Sprintf("arena: unknown sink %d", sink))
	}
}
