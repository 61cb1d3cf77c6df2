// Package resource defines the GPU-bound objects recorded by the frontend:
// vertex/element/instance Buffers with their Format, Textures, render
// Targets, Programs and Downloaders.
//
// Resources keep a CPU-side copy of their contents together with a list of
// pending edits. The frontend turns those edits into update commands so a
// backend only uploads the byte ranges that changed:
//
//	buf := resource.NewBuffer(id)
//	buf.RecordFormat(format)
//	copy(buf.MapVertices(64), vertices)
//	buf.RecordVerticesEdit(0, 64)
//	buf.OptimizeEdits()
//
// Misuse that indicates a programming error, such as mapping a size that is
// not a multiple of the stride or recording an edit past the end of a
// store, panics. Nothing in this package is safe for concurrent use.
package resource
