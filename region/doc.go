// Package region implements the free-list allocator that backs arena
// sub-allocation.
//
// A List manages a linear, byte-addressed space as an offset-sorted slice
// of Regions. The Regions are gapless, cover the whole address space and
// never leave two free Regions next to each other:
//
//	[0,64) used  [64,96) free  [96,160) used  [160,256) free
//
// Allocation searches the free Regions (first fit by default, see Policy),
// splitting a larger Region when needed. When nothing fits the address
// space grows at the end, so allocation only fails for requests that cannot
// be represented. Deallocation coalesces the released Region with its free
// neighbours.
//
// Offsets are the only handle a caller keeps. Every offset lookup is a
// binary search over the Region slice.
//
// A List is not safe for concurrent use.
package region
