// Package halreplay is the reference Backend. It replays frontend command
// streams onto a wgpu HAL device.
//
// Resource commands map to device objects: a constructed resource.Buffer
// gets one hal.Buffer per non-empty sink, sized to the sink's store and
// created with the sink's usage flags; a texture gets one hal.Texture
// holding every mip level. Updates issue one queue write per edit, so only
// the byte ranges the frontend marked dirty travel to the device. When a
// store outgrew its device buffer (an arena's address space grew), the
// buffer is recreated and uploaded whole.
//
// Frame commands (draw, clear, blit, download and profile) are validated
// against the replayed state and counted. Downloads are served from the
// CPU copy of the source attachment.
//
// Importing the package registers a "noop" backend on the wgpu noop HAL:
//
//	import _ "github.com/gogpu/frontend/backend/halreplay"
//
//	b, err := backend.New("noop")
package halreplay
