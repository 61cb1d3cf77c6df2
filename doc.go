// Package frontend is the recording half of a renderer: it batches GPU
// resources and frame commands into a replayable stream for a backend.
//
// # Overview
//
// A Context owns every resource it creates and hands them out as
// resource.ID handles inside commands. Geometry that shares a Format is
// best batched into an Arena, which sub-allocates one Buffer among many
// Blocks so that a scene needs few device buffers. Every write records a
// byte-range edit; updates send only the optimised edits, never whole
// stores.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/frontend"
//		"github.com/gogpu/frontend/backend"
//	)
//
//	ctx := frontend.New()
//	defer ctx.Close()
//
//	meshes := ctx.CreateArena(format)
//	ctx.InitializeBuffer(meshes.Buffer())
//
//	quad := meshes.Block()
//	quad.WriteVertices(vertices)
//	quad.WriteElements(indices)
//	ctx.UpdateArena(meshes)
//	ctx.DrawBlock(frontend.DrawCall{Target: ctx.Swapchain(), Program: prog}, quad)
//
//	b, _ := backend.New("noop")
//	if err := ctx.Submit(context.Background(), b); err != nil {
//		log.Fatal(err)
//	}
//
// # Architecture
//
// The module is organized into:
//   - region: offset-sorted free-list allocator with coalescing
//   - resource: Format, Buffer, Texture, Target, Program, Downloader
//   - arena: Arena and Block sub-allocation over a resource.Buffer
//   - command: the tagged command stream and its reader
//   - backend: the consumer interface and registry; halreplay replays
//     onto a wgpu HAL device
//
// The package registers the "noop" replay backend of backend/halreplay, so
// a backend is always available.
//
// # Frames
//
// A Context records into one of two command buffers. Submit replays the
// current buffer into a backend and swaps; Swap alone hands the buffer to
// an external consumer while the next frame records into the other one.
// When a command does not fit, the record method returns false and Submit
// reports ErrCommandBufferFull.
package frontend

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
