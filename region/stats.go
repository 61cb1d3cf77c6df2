package region

import "fmt"

// Stats summarizes the state of a List.
type Stats struct {
	// Regions is the total number of Regions.
	Regions int
	// Allocated is the number of allocated Regions.
	Allocated int
	// Size is the address space in bytes.
	Size uint32
	// Used is the number of allocated bytes.
	Used uint32
	// LargestFree is the size of the largest free Region.
	LargestFree uint32
	// Fragmentation is 1 - LargestFree/free bytes; 0 when nothing is free.
	Fragmentation float64
}

// Stats computes allocation statistics in a single pass.
func (l *List) Stats() Stats {
	s := Stats{
		Regions: len(l.regions),
		Size:    l.size,
		Used:    l.used,
	}
	for _, r := range l.regions {
		if !r.Free {
			s.Allocated++
			continue
		}
		s.LargestFree = max(s.LargestFree, r.Size)
	}
	if free := l.size - l.used; free > 0 {
		s.Fragmentation = 1 - float64(s.LargestFree)/float64(free)
	}
	return s
}

// String returns a human-readable representation of the statistics.
func (s Stats) String() string {
	return fmt.Sprintf("Regions{count: %d, allocated: %d, used: %d/%d bytes, largest free: %d, fragmentation: %.1f%%}",
		s.Regions, s.Allocated, s.Used, s.Size, s.LargestFree, s.Fragmentation*100)
}
