package resource

import "fmt"

// Sink selects one of the three byte stores of a Buffer.
type Sink uint32

const (
	SinkElements Sink = iota
	SinkVertices
	SinkInstances

	// NumSinks is the number of byte stores per Buffer.
	NumSinks = 3
)

var sinkNames = [...]string{
	SinkElements:  "elements",
	SinkVertices:  "vertices",
	SinkInstances: "instances",
}

// String returns the sink name.
func (s Sink) String() string {
	if int(s) < len(sinkNames) {
		return sinkNames[s]
	}
	return "Unknown"
}

// Valid reports whether s names a store.
func (s Sink) Valid() bool {
	return s < NumSinks
}

// Edit is a dirty byte range of one sink. Edits may overlap or nest until
// Buffer.OptimizeEdits removes the contained ones.
type Edit struct {
	Sink   Sink
	Offset uint32
	Size   uint32
}

// End returns the offset one past the last byte of the edit.
func (e Edit) End() uint32 {
	return e.Offset + e.Size
}

// Contains reports whether other lies entirely inside e. Edits of different
// sinks never contain each other.
func (e Edit) Contains(other Edit) bool {
	return e.Sink == other.Sink && other.Offset >= e.Offset && other.End() <= e.End()
}

// String returns a compact representation such as "vertices[0,64)".
func (e Edit) String() string {
	return fmt.Sprintf("%v[%d,%d)", e.Sink, e.Offset, e.End())
}
