package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramUniforms(t *testing.T) {
	p, err := NewProgram(1, "forward", []Uniform{
		{Name: "model", Size: 64},
		{Name: "tint", Size: 16},
		{Name: "time", Size: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, uint32(84), p.UniformSize())
	assert.Equal(t, uint64(0b111), p.DirtyUniforms(), "everything starts dirty")

	footer := make([]byte, p.DirtyUniformSize())
	assert.Equal(t, 84, p.FlushUniforms(footer))
	assert.Zero(t, p.DirtyUniforms())

	p.SetUniform(2, []byte{1, 2, 3, 4})
	p.SetUniform(1, make([]byte, 16))
	assert.Equal(t, uint64(0b110), p.DirtyUniforms())
	assert.Equal(t, uint32(20), p.DirtyUniformSize())

	footer = make([]byte, p.DirtyUniformSize())
	p.FlushUniforms(footer)
	assert.Equal(t, []byte{1, 2, 3, 4}, footer[16:])

	split := p.SplitUniforms(0b110, footer)
	assert.Equal(t, []byte{1, 2, 3, 4}, split[2])
	assert.Len(t, split[1], 16)

	assert.Panics(t, func() { p.SetUniform(0, make([]byte, 3)) })
	assert.Panics(t, func() { p.SetUniform(3, nil) })
}

func TestProgramLimits(t *testing.T) {
	uniforms := make([]Uniform, MaxUniforms+1)
	for i := range uniforms {
		uniforms[i] = Uniform{Name: "u", Size: 4}
	}
	_, err := NewProgram(1, "big", uniforms)
	assert.ErrorIs(t, err, ErrTooManyUniforms)

	p, err := NewProgram(1, "full", uniforms[:MaxUniforms])
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), p.DirtyUniforms())

	_, err = NewProgram(1, "empty", []Uniform{{Name: "zero"}})
	assert.ErrorIs(t, err, ErrUniformSize)
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "TextureCM", KindTextureCM.String())
	assert.Equal(t, "Unknown", Kind(200).String())
	assert.True(t, KindTexture1D.IsTexture())
	assert.False(t, KindDownloader.IsTexture())
	assert.False(t, InvalidID.IsValid())
	assert.True(t, ID(0).IsValid())
}
