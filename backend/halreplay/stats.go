package halreplay

import "fmt"

// Stats counts device objects and replayed work.
type Stats struct {
	// Buffers is the number of live device buffers, one per non-empty sink.
	Buffers int

	// Textures is the number of live device textures.
	Textures int

	// DeviceBytes is the combined size of the live device buffers.
	DeviceBytes uint64

	// Writes is the number of queue writes issued.
	Writes int

	// UploadedBytes is the number of bytes written through the queue.
	UploadedBytes uint64

	// Recreated counts device buffers replaced because their store grew.
	Recreated int

	Draws         int
	Clears        int
	Blits         int
	Downloads     int
	ProfileScopes int
	UniformBytes  uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Replay[%d buffers (%d KB), %d textures, %d writes (%d bytes), %d recreated, %d draws, %d clears, %d blits, %d downloads]",
		s.Buffers,
		s.DeviceBytes/1024,
		s.Textures,
		s.Writes,
		s.UploadedBytes,
		s.Recreated,
		s.Draws,
		s.Clears,
		s.Blits,
		s.Downloads)
}
