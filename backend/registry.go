package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Factory creates a new backend instance.
type Factory func() (Backend, error)

// Backend names, in priority order for Best. Hardware backends are
// preferred; the noop replay backend is the fallback.
const (
	NameVulkan = "vulkan"
	NameMetal  = "metal"
	NameDX12   = "dx12"
	NameGLES   = "gles"
	NameNoop   = "noop"
)

// registryMu serializes the duplicate check and the insert; the
// gpucontext registry replaces duplicates silently.
var (
	registryMu sync.Mutex
	backends   = gpucontext.NewRegistry[Factory](
		gpucontext.WithPriority(NameVulkan, NameMetal, NameDX12, NameGLES, NameNoop),
	)
)

// Register registers a backend factory with the given name.
// This function is typically called from init() in backend packages,
// following the database/sql driver pattern:
//
//	func init() {
//	    backend.Register("noop", OpenNoop)
//	}
//
// Register panics if factory is nil or if a backend with the same name is
// already registered.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("backend: Register factory is nil")
	}
	if backends.Has(name) {
		panic("backend: Register called twice for " + name)
	}
	backends.Register(name, func() Factory { return factory })
}

// Unregister removes a backend from the registry.
// This is primarily useful for testing to clean up between tests.
// If the backend is not registered, this is a no-op.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends.Unregister(name)
}

// New creates a backend instance by name.
//
// Returns an error wrapping ErrUnknownBackend if the backend is not
// registered. The error message includes a hint about forgotten imports.
func New(name string) (Backend, error) {
	factory := backends.Get(name)
	if factory == nil {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownBackend, name)
	}
	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: open %q: %w", name, err)
	}
	return b, nil
}

// Must is like New but panics on error.
func Must(name string) Backend {
	b, err := New(name)
	if err != nil {
		panic(err)
	}
	return b
}

// Best creates the highest priority registered backend.
func Best() (Backend, error) {
	name := backends.BestName()
	if name == "" {
		return nil, ErrNoBackend
	}
	return New(name)
}

// Names returns the names of all registered backends, sorted.
func Names() []string {
	names := backends.Available()
	slices.Sort(names)
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	return backends.Has(name)
}
