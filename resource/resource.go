package resource

// Kind identifies the concrete type behind a Resource.
type Kind uint8

const (
	KindBuffer Kind = iota
	KindTarget
	KindProgram
	KindTexture1D
	KindTexture2D
	KindTexture3D
	KindTextureCM
	KindDownloader
)

var kindNames = [...]string{
	KindBuffer:     "Buffer",
	KindTarget:     "Target",
	KindProgram:    "Program",
	KindTexture1D:  "Texture1D",
	KindTexture2D:  "Texture2D",
	KindTexture3D:  "Texture3D",
	KindTextureCM:  "TextureCM",
	KindDownloader: "Downloader",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsTexture reports whether the kind is one of the texture kinds.
func (k Kind) IsTexture() bool {
	return k >= KindTexture1D && k <= KindTextureCM
}

// ID is a handle to a Resource owned by a frontend context.
// Commands carry IDs rather than pointers; backends resolve them.
type ID uint32

// InvalidID marks an unset reference.
const InvalidID ID = ^ID(0)

// IsValid returns true if the ID is not InvalidID.
func (id ID) IsValid() bool {
	return id != InvalidID
}

// Resource is implemented by every object a context can hand to a backend.
type Resource interface {
	// Kind returns the tag of the concrete type.
	Kind() Kind

	// ID returns the handle assigned at creation.
	ID() ID

	// Usage returns the CPU-side bytes held by the resource.
	Usage() int
}
