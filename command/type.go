package command

// Type identifies the payload that follows a Header.
type Type uint8

const (
	// Resource lifetime
	TypeResourceAllocate  Type = iota // Resource handle reserved
	TypeResourceConstruct             // Resource contents validated, device object created
	TypeResourceUpdate                // Edited ranges of a resource uploaded
	TypeResourceDestroy               // Device object released

	// Frame commands
	TypeClear    // Clear attachments of a target
	TypeDraw     // Draw from a buffer with a program
	TypeBlit     // Copy between target attachments
	TypeDownload // Read back a target attachment
	TypeProfile  // Open or close a profiling scope
)

// typeNames maps Type values to their string representation.
var typeNames = [...]string{
	TypeResourceAllocate:  "ResourceAllocate",
	TypeResourceConstruct: "ResourceConstruct",
	TypeResourceUpdate:    "ResourceUpdate",
	TypeResourceDestroy:   "ResourceDestroy",
	TypeClear:             "Clear",
	TypeDraw:              "Draw",
	TypeBlit:              "Blit",
	TypeDownload:          "Download",
	TypeProfile:           "Profile",
}

// String returns the string representation of a Type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// IsResource reports whether the Type carries a ResourceCommand payload.
func (t Type) IsResource() bool {
	return t == TypeResourceAllocate || t == TypeResourceConstruct || t == TypeResourceDestroy
}
