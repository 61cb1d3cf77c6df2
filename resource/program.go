package resource

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxUniforms is the number of uniforms a Program can track as dirty.
const MaxUniforms = 64

var (
	// ErrTooManyUniforms is returned when a Program declares more than MaxUniforms.
	ErrTooManyUniforms = errors.New("resource: too many uniforms")

	// ErrUniformSize is returned for empty uniforms.
	ErrUniformSize = errors.New("resource: uniform has zero size")
)

// Uniform declares one uniform value of a Program.
type Uniform struct {
	Name string
	Size uint32
}

// Program is an opaque shader program identified by name. It keeps the
// current value of each uniform and which ones changed since the last draw.
// Shader compilation is left to the backend.
type Program struct {
	id       ID
	name     string
	uniforms []Uniform
	offsets  []uint32
	data     []byte
	dirty    uint64
}

// NewProgram creates a Program with the given uniforms. All uniforms start
// dirty so the first draw uploads them.
func NewProgram(id ID, name string, uniforms []Uniform) (*Program, error) {
	if len(uniforms) > MaxUniforms {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyUniforms, len(uniforms), MaxUniforms)
	}
	p := &Program{
		id:       id,
		name:     name,
		uniforms: append([]Uniform(nil), uniforms...),
		offsets:  make([]uint32, len(uniforms)),
	}
	var size uint32
	for i, u := range uniforms {
		if u.Size == 0 {
			return nil, fmt.Errorf("%w: %q", ErrUniformSize, u.Name)
		}
		p.offsets[i] = size
		size += u.Size
	}
	p.data = make([]byte, size)
	p.MarkUniformsDirty()
	return p, nil
}

// Kind returns KindProgram.
func (p *Program) Kind() Kind { return KindProgram }

// ID returns the handle assigned at creation.
func (p *Program) ID() ID { return p.id }

// Usage returns the bytes of uniform storage.
func (p *Program) Usage() int { return len(p.data) }

// Name returns the program description.
func (p *Program) Name() string { return p.name }

// Uniforms returns the declared uniforms. The slice is owned by the Program.
func (p *Program) Uniforms() []Uniform { return p.uniforms }

// UniformSize returns the combined size of all uniforms in bytes.
func (p *Program) UniformSize() uint32 { return uint32(len(p.data)) }

// SetUniform stores the value of uniform i and marks it dirty. The value
// must match the declared size.
func (p *Program) SetUniform(i int, value []byte) {
	if i < 0 || i >= len(p.uniforms) {
		panic(fmt.Sprintf("resource: uniform %d out of range [0,%d)", i, len(p.uniforms)))
	}
	if uint32(len(value)) != p.uniforms[i].Size {
		panic(fmt.Sprintf("resource: uniform %q is %d bytes, got %d", p.uniforms[i].Name, p.uniforms[i].Size, len(value)))
	}
	copy(p.data[p.offsets[i]:], value)
	p.dirty |= 1 << i
}

// Uniform returns the current value of uniform i.
func (p *Program) Uniform(i int) []byte {
	u := p.uniforms[i]
	return p.data[p.offsets[i] : p.offsets[i]+u.Size]
}

// DirtyUniforms returns the bit set of uniforms changed since the last
// flush.
func (p *Program) DirtyUniforms() uint64 { return p.dirty }

// DirtyUniformSize returns the combined size of the dirty uniforms.
func (p *Program) DirtyUniformSize() uint32 {
	var n uint32
	for mask := p.dirty; mask != 0; mask &= mask - 1 {
		n += p.uniforms[bits.TrailingZeros64(mask)].Size
	}
	return n
}

// FlushUniforms copies the dirty uniform values into dst in uniform order,
// clears the dirty set and returns the number of bytes written. dst must
// hold DirtyUniformSize bytes.
func (p *Program) FlushUniforms(dst []byte) int {
	n := 0
	for mask := p.dirty; mask != 0; mask &= mask - 1 {
		n += copy(dst[n:], p.Uniform(bits.TrailingZeros64(mask)))
	}
	p.dirty = 0
	return n
}

// MarkUniformsDirty marks every uniform dirty, for instance after the
// backend lost its state.
func (p *Program) MarkUniformsDirty() {
	if n := len(p.uniforms); n == MaxUniforms {
		p.dirty = ^uint64(0)
	} else {
		p.dirty = 1<<n - 1
	}
}

// SplitUniforms splits a flushed uniform footer back into per-uniform
// values. It is the inverse of FlushUniforms for the given dirty set.
func (p *Program) SplitUniforms(dirty uint64, footer []byte) map[int][]byte {
	out := make(map[int][]byte, bits.OnesCount64(dirty))
	n := uint32(0)
	for mask := dirty; mask != 0; mask &= mask - 1 {
		i := bits.TrailingZeros64(mask)
		size := p.uniforms[i].Size
		if uint32(len(footer)) < n+size {
			break
		}
		out[i] = footer[n : n+size]
		n += size
	}
	return out
}
