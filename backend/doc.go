// Package backend defines the consumer side of the frontend's command
// stream.
//
// A frontend context records resource lifetime and frame commands into a
// command.Buffer. At submit time the stream is handed to a Backend, which
// replays it against a graphics device. Commands carry resource.ID
// handles; the Backend resolves them through a Resolver supplied by the
// context.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime,
// following the database/sql driver pattern. The reference HAL replay
// backend registers itself as "noop":
//
//	import _ "github.com/gogpu/frontend/backend/halreplay"
//
// # Backend Selection
//
// Use Best to get the highest priority registered backend, or New to
// request one by name:
//
//	b, err := backend.New("noop")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
// Priority order is vulkan, metal, dx12, gles, then noop. Backends with
// other names rank last.
package backend
