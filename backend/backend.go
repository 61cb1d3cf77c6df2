package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/resource"
)

// Common backend errors.
var (
	// ErrUnknownBackend is returned when a requested backend is not registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrNoBackend is returned by Best when nothing is registered.
	ErrNoBackend = errors.New("backend: no backend registered")

	// ErrUnknownResource is returned when a command references an ID the
	// Resolver does not know.
	ErrUnknownResource = errors.New("backend: unknown resource")

	// ErrClosed is returned when Process is called after Close.
	ErrClosed = errors.New("backend: closed")
)

// Resolver maps the resource handles carried by commands to the objects a
// frontend context owns.
type Resolver interface {
	Resolve(id resource.ID) (resource.Resource, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id resource.ID) (resource.Resource, bool)

// Resolve calls f(id).
func (f ResolverFunc) Resolve(id resource.ID) (resource.Resource, bool) { return f(id) }

// Backend consumes command streams recorded by a frontend context and
// translates them to a graphics API.
//
// Backends never allocate regions; every offset they see was assigned by
// the frontend.
type Backend interface {
	// Name returns the registry name of the backend (e.g. "noop").
	Name() string

	// Process replays stream in recording order. Resources referenced by
	// ID are looked up through res. Process returns the first error and
	// leaves the rest of the stream unprocessed.
	Process(ctx context.Context, stream *command.Reader, res Resolver) error

	// Close releases all device objects. The backend must not be used
	// after Close is called.
	Close() error
}

// Resolve looks up id through res and asserts its concrete type.
func Resolve[T resource.Resource](res Resolver, id resource.ID) (T, error) {
	var zero T
	r, ok := res.Resolve(id)
	if !ok {
		return zero, fmt.Errorf("%w: %d", ErrUnknownResource, id)
	}
	t, ok := r.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %d is a %v, want %T", ErrUnknownResource, id, r.Kind(), zero)
	}
	return t, nil
}
