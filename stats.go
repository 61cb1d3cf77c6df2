package frontend

import "fmt"

// Stats describes the resources a Context owns and the work it recorded.
type Stats struct {
	// Resources is the number of live resources, the swapchain included.
	Resources int

	// MemoryBytes is the CPU-side memory held by live resources.
	MemoryBytes int

	// Arenas and Blocks count live arenas and their blocks.
	Arenas int
	Blocks int

	// Formats is the number of interned Formats; FormatHits counts
	// Formats that resolved to an existing instance.
	Formats    int
	FormatHits uint64

	// Frames, Commands and CommandBytes accumulate over swapped frames.
	Frames       uint64
	Commands     uint64
	CommandBytes uint64

	// Overflows counts frames in which a command did not fit.
	Overflows uint64

	// EditsRecorded counts edits handed to updates; EditsOptimized those
	// removed as contained in another edit.
	EditsRecorded  uint64
	EditsOptimized uint64

	// UploadBytes is the byte size of all recorded updates.
	UploadBytes uint64
}

// Stats returns current statistics.
func (c *Context) Stats() Stats {
	s := Stats{
		Resources:      len(c.resources),
		Arenas:         len(c.arenas),
		Frames:         c.stats.frames,
		Commands:       c.stats.commands,
		CommandBytes:   c.stats.commandBytes,
		Overflows:      c.stats.overflows,
		EditsRecorded:  c.stats.editsRecorded,
		EditsOptimized: c.stats.editsOptimized,
		UploadBytes:    c.stats.uploadBytes,
	}
	for _, r := range c.resources {
		s.MemoryBytes += r.Usage()
	}
	for _, a := range c.arenas {
		s.Blocks += a.Blocks()
	}
	fs := c.formats.Stats()
	s.Formats = fs.Len
	s.FormatHits = fs.Hits
	return s
}

// String returns a human-readable string of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("Frontend[%d resources (%d KB), %d arenas/%d blocks, %d formats, %d frames, %d commands (%d KB), %d/%d edits optimised, %d overflows]",
		s.Resources,
		s.MemoryBytes/1024,
		s.Arenas,
		s.Blocks,
		s.Formats,
		s.Frames,
		s.Commands,
		s.CommandBytes/1024,
		s.EditsOptimized,
		s.EditsRecorded,
		s.Overflows)
}
