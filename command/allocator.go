package command

// Allocator supplies the backing memory of a Buffer. The Buffer requests
// its block once at creation and returns it on Close.
type Allocator interface {
	Allocate(size int) []byte
	Deallocate(block []byte)
}

// HeapAllocator allocates from the Go heap.
type HeapAllocator struct{}

// Allocate returns a zeroed block of size bytes.
func (HeapAllocator) Allocate(size int) []byte { return make([]byte, size) }

// Deallocate leaves the block to the garbage collector.
func (HeapAllocator) Deallocate([]byte) {}
