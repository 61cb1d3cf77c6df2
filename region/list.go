package region

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

const (
	// MaxSize is the largest Region, and the largest address space, a List
	// can describe. Region sizes are 31-bit quantities.
	MaxSize uint32 = 1<<31 - 1

	// DefaultCapacity is the number of Regions preallocated by New.
	DefaultCapacity = 16
)

// Errors reported by List lookups and Validate.
var (
	// ErrBadOffset is returned when no Region starts at the given offset.
	ErrBadOffset = errors.New("region: no region starts at offset")

	// ErrNotAllocated is returned when the Region at an offset is free.
	ErrNotAllocated = errors.New("region: region is not allocated")

	// ErrInvariant is returned by Validate when the Region list is corrupt.
	ErrInvariant = errors.New("region: invariant violated")
)

// Region is a contiguous byte range of the address space.
type Region struct {
	Offset uint32
	Size   uint32
	Free   bool
}

// End returns the offset one past the last byte of the Region.
func (r Region) End() uint32 {
	return r.Offset + r.Size
}

// String returns a compact representation such as "[64,96) free".
func (r Region) String() string {
	state := "used"
	if r.Free {
		state = "free"
	}
	return fmt.Sprintf("[%d,%d) %s", r.Offset, r.End(), state)
}

// List is a free-list allocator over a growable address space.
// The zero value is not usable; create Lists with New.
type List struct {
	regions []Region
	size    uint32
	used    uint32
	policy  Policy
	minCap  int
	maxSize uint32
}

// New creates an empty List. The address space starts at size 0 and grows
// on demand.
func New(opts ...Option) *List {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &List{
		regions: make([]Region, 0, o.capacity),
		policy:  o.policy,
		minCap:  o.capacity,
		maxSize: o.maxSize,
	}
}

// Policy returns the fit policy chosen at construction.
func (l *List) Policy() Policy {
	return l.policy
}

// Allocate reserves size bytes and returns the offset of the new Region.
//
// A free Region that fits is split, leaving its remainder free. When no free
// Region fits, the address space grows at the end, extending a trailing
// free Region if there is one. Allocate returns false only for a zero size
// or when the address space cannot grow far enough.
func (l *List) Allocate(size uint32) (uint32, bool) {
	if size == 0 || size > MaxSize {
		return 0, false
	}
	if i := l.find(size); i >= 0 {
		return l.take(i, size), true
	}
	return l.growFor(size)
}

// Reallocate resizes the allocated Region at offset and returns its
// possibly new offset. No data moves; callers that keep bytes in the
// Region copy them when the offset changes.
//
// Shrinking always happens in place, with the released tail coalescing into
// a following free Region. Growth happens in place when the next Region is
// free and large enough, or when the Region ends the address space.
// Otherwise a new Region is allocated and the old one released.
func (l *List) Reallocate(offset, size uint32) (uint32, bool) {
	if size == 0 || size > MaxSize {
		return 0, false
	}
	i := l.IndexOf(offset)
	if i < 0 || l.regions[i].Free {
		return 0, false
	}

	current := l.regions[i].Size
	switch {
	case size == current:
		return offset, true
	case size < current:
		l.shrink(i, size)
		return offset, true
	}

	if l.growInPlace(i, size) {
		return offset, true
	}

	moved, ok := l.Allocate(size)
	if !ok {
		return 0, false
	}
	l.Deallocate(offset)
	return moved, true
}

// Deallocate releases the Region at offset and coalesces it with free
// neighbours. It returns false if no allocated Region starts at offset.
func (l *List) Deallocate(offset uint32) bool {
	i := l.IndexOf(offset)
	if i < 0 || l.regions[i].Free {
		return false
	}
	l.used -= l.regions[i].Size
	l.regions[i].Free = true
	l.coalesce(i)
	return true
}

// IndexOf returns the index of the Region starting at offset, or -1.
// It runs in O(log n).
func (l *List) IndexOf(offset uint32) int {
	i, found := slices.BinarySearchFunc(l.regions, offset, func(r Region, off uint32) int {
		return cmp.Compare(r.Offset, off)
	})
	if !found {
		return -1
	}
	return i
}

// Region returns the Region at index i. It panics if i is out of range.
func (l *List) Region(i int) Region {
	if i < 0 || i >= len(l.regions) {
		panic(fmt.Sprintf("region: index %d out of range [0,%d)", i, len(l.regions)))
	}
	return l.regions[i]
}

// RegionAt returns the Region starting at offset.
func (l *List) RegionAt(offset uint32) (Region, error) {
	i := l.IndexOf(offset)
	if i < 0 {
		return Region{}, fmt.Errorf("%w: %d", ErrBadOffset, offset)
	}
	return l.regions[i], nil
}

// SizeOf returns the size of the allocated Region starting at offset.
func (l *List) SizeOf(offset uint32) (uint32, error) {
	r, err := l.RegionAt(offset)
	if err != nil {
		return 0, err
	}
	if r.Free {
		return 0, fmt.Errorf("%w: %v", ErrNotAllocated, r)
	}
	return r.Size, nil
}

// Len returns the number of Regions, free and allocated.
func (l *List) Len() int {
	return len(l.regions)
}

// Size returns the size of the address space in bytes.
func (l *List) Size() uint32 {
	return l.size
}

// Used returns the number of allocated bytes.
func (l *List) Used() uint32 {
	return l.used
}

// Free returns the number of free bytes inside the address space.
func (l *List) Free() uint32 {
	return l.size - l.used
}

// Regions returns a copy of the Region list in offset order.
func (l *List) Regions() []Region {
	return slices.Clone(l.regions)
}

// Reset drops every Region and shrinks the address space to zero.
// Offsets handed out before Reset become invalid.
func (l *List) Reset() {
	l.regions = l.regions[:0]
	l.size = 0
	l.used = 0
}

// Validate checks the structural invariants of the List: Regions are
// non-empty, gapless and sorted from offset 0, cover exactly the address
// space, and no two free Regions are adjacent.
func (l *List) Validate() error {
	var end uint64
	var used uint32
	for i, r := range l.regions {
		if r.Size == 0 {
			return fmt.Errorf("%w: region %d is empty", ErrInvariant, i)
		}
		if uint64(r.Offset) != end {
			return fmt.Errorf("%w: region %d %v does not start at %d", ErrInvariant, i, r, end)
		}
		if r.Free && i > 0 && l.regions[i-1].Free {
			return fmt.Errorf("%w: regions %d and %d are both free", ErrInvariant, i-1, i)
		}
		if !r.Free {
			used += r.Size
		}
		end += uint64(r.Size)
	}
	if end != uint64(l.size) {
		return fmt.Errorf("%w: regions cover %d bytes, address space is %d", ErrInvariant, end, l.size)
	}
	if used != l.used {
		return fmt.Errorf("%w: %d bytes allocated, accounted %d", ErrInvariant, used, l.used)
	}
	return nil
}

// find returns the index of the free Region chosen by the policy, or -1.
func (l *List) find(size uint32) int {
	best := -1
	for i, r := range l.regions {
		if !r.Free || r.Size < size {
			continue
		}
		if l.policy == FirstFit {
			return i
		}
		if best < 0 || r.Size < l.regions[best].Size {
			best = i
			if r.Size == size {
				break
			}
		}
	}
	return best
}

// take marks the free Region i allocated, splitting off the remainder.
func (l *List) take(i int, size uint32) uint32 {
	r := &l.regions[i]
	offset := r.Offset
	rest := r.Size - size
	r.Size = size
	r.Free = false
	if rest > 0 {
		l.insertAt(i+1, Region{Offset: offset + size, Size: rest, Free: true})
	}
	l.used += size
	return offset
}

// growFor extends the address space to satisfy an allocation of size bytes.
func (l *List) growFor(size uint32) (uint32, bool) {
	n := len(l.regions)
	if n > 0 && l.regions[n-1].Free {
		last := &l.regions[n-1]
		need := size - last.Size
		if !l.canGrow(need) {
			return 0, false
		}
		last.Size = size
		last.Free = false
		l.size += need
		l.used += size
		return last.Offset, true
	}

	if !l.canGrow(size) {
		return 0, false
	}
	offset := l.size
	l.insertAt(n, Region{Offset: offset, Size: size})
	l.size += size
	l.used += size
	return offset, true
}

// shrink cuts the allocated Region i down to size, freeing its tail.
func (l *List) shrink(i int, size uint32) {
	r := &l.regions[i]
	tail := r.Size - size
	r.Size = size
	l.used -= tail

	start := r.Offset + size
	if i+1 < len(l.regions) && l.regions[i+1].Free {
		l.regions[i+1].Offset = start
		l.regions[i+1].Size += tail
		return
	}
	l.insertAt(i+1, Region{Offset: start, Size: tail, Free: true})
}

// growInPlace enlarges the allocated Region i without moving it.
func (l *List) growInPlace(i int, size uint32) bool {
	need := size - l.regions[i].Size
	last := len(l.regions) - 1

	if i == last {
		if !l.canGrow(need) {
			return false
		}
		l.size += need
	} else {
		next := l.regions[i+1]
		if !next.Free {
			return false
		}
		switch {
		case next.Size > need:
			l.regions[i+1].Offset += need
			l.regions[i+1].Size -= need
		case next.Size == need:
			l.removeAt(i + 1)
		case i+1 == last:
			// Absorb the trailing free Region and extend past it.
			extra := need - next.Size
			if !l.canGrow(extra) {
				return false
			}
			l.removeAt(i + 1)
			l.size += extra
		default:
			return false
		}
	}

	l.regions[i].Size = size
	l.used += need
	return true
}

// coalesce merges the free Region i with free neighbours.
func (l *List) coalesce(i int) {
	if i+1 < len(l.regions) && l.regions[i+1].Free {
		l.regions[i].Size += l.regions[i+1].Size
		l.removeAt(i + 1)
	}
	if i > 0 && l.regions[i-1].Free {
		l.regions[i-1].Size += l.regions[i].Size
		l.removeAt(i)
	}
}

func (l *List) canGrow(n uint32) bool {
	return uint64(l.size)+uint64(n) <= uint64(l.maxSize)
}

// reserve makes room for n Regions, doubling the capacity when it grows.
func (l *List) reserve(n int) {
	if n <= cap(l.regions) {
		return
	}
	grown := make([]Region, len(l.regions), max(2*cap(l.regions), n, l.minCap))
	copy(grown, l.regions)
	l.regions = grown
}

func (l *List) insertAt(i int, r Region) {
	n := len(l.regions)
	l.reserve(n + 1)
	l.regions = l.regions[:n+1]
	copy(l.regions[i+1:], l.regions[i:n])
	l.regions[i] = r
}

func (l *List) removeAt(i int) {
	l.regions = slices.Delete(l.regions, i, i+1)
}
