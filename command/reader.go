package command

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/frontend/resource"
)

var (
	// ErrCorrupt is reported by Reader.Err when a header does not describe
	// a record inside the stream.
	ErrCorrupt = errors.New("command: corrupt stream")

	// ErrTypeMismatch is returned when a Record is decoded as the wrong Type.
	ErrTypeMismatch = errors.New("command: type mismatch")

	// ErrShortPayload is returned when a payload is smaller than its
	// fixed part and declared footer.
	ErrShortPayload = errors.New("command: short payload")
)

// Record is one decoded command. Payload aliases the Buffer and is valid
// until the Buffer is reset.
type Record struct {
	Header  Header
	Tag     Tag
	Payload []byte
}

// Reader iterates the records of a Buffer in recording order.
type Reader struct {
	buf *Buffer
	pos int
	err error
}

// NewReader returns a Reader positioned at the first record of b.
func NewReader(b *Buffer) *Reader {
	return &Reader{buf: b}
}

// Next returns the next record. It returns false at the end of the stream
// or when the stream is corrupt; Err distinguishes the two.
func (r *Reader) Next() (Record, bool) {
	if r.err != nil {
		return Record{}, false
	}
	data := r.buf.Bytes()
	if r.pos >= len(data) {
		return Record{}, false
	}
	if len(data)-r.pos < HeaderSize {
		r.err = fmt.Errorf("%w: truncated header at %d", ErrCorrupt, r.pos)
		return Record{}, false
	}

	h := readHeader(data[r.pos : r.pos+HeaderSize])
	size := int(h.RecordSize)
	if size < HeaderSize || size%Alignment != 0 || size > len(data)-r.pos ||
		int(h.PayloadSize) > size-HeaderSize {
		r.err = fmt.Errorf("%w: bad %v record at %d", ErrCorrupt, h.Type, r.pos)
		return Record{}, false
	}

	start := r.pos + HeaderSize
	rec := Record{
		Header:  h,
		Tag:     r.buf.Tag(h.Tag),
		Payload: data[start : start+int(h.PayloadSize) : start+int(h.PayloadSize)],
	}
	r.pos += size
	return rec, true
}

// Err returns the error that stopped iteration, if any.
func (r *Reader) Err() error { return r.err }

// Reset rewinds the Reader to the first record.
func (r *Reader) Reset() {
	r.pos = 0
	r.err = nil
}

// decode reads the fixed part of rec into cmd and returns the footer.
func decode[T any](rec Record, want Type, cmd *T) ([]byte, error) {
	if rec.Header.Type != want {
		return nil, fmt.Errorf("%w: %v decoded as %v", ErrTypeMismatch, rec.Header.Type, want)
	}
	n, err := binary.Decode(rec.Payload, binary.LittleEndian, cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrShortPayload, want, err)
	}
	return rec.Payload[n:], nil
}

// Resource decodes an allocate, construct or destroy payload.
func (rec Record) Resource() (ResourceCommand, error) {
	var cmd ResourceCommand
	if !rec.Header.Type.IsResource() {
		return cmd, fmt.Errorf("%w: %v is not a resource command", ErrTypeMismatch, rec.Header.Type)
	}
	_, err := decode(rec, rec.Header.Type, &cmd)
	return cmd, err
}

// Update decodes an update payload and returns its raw edit footer.
func (rec Record) Update() (UpdateCommand, []byte, error) {
	var cmd UpdateCommand
	footer, err := decode(rec, TypeResourceUpdate, &cmd)
	if err != nil {
		return cmd, nil, err
	}
	var each int
	switch {
	case cmd.Kind == resource.KindBuffer:
		each = editSize
	case cmd.Kind.IsTexture():
		each = TextureEditSize(cmd.Kind)
	default:
		return cmd, nil, fmt.Errorf("%w: update of %v", ErrTypeMismatch, cmd.Kind)
	}
	if len(footer) < int(cmd.Edits)*each {
		return cmd, nil, fmt.Errorf("%w: %d edits in %d bytes", ErrShortPayload, cmd.Edits, len(footer))
	}
	return cmd, footer[:int(cmd.Edits)*each], nil
}

// BufferEdits decodes the edit list of a buffer update.
func (rec Record) BufferEdits() (UpdateCommand, []resource.Edit, error) {
	cmd, footer, err := rec.Update()
	if err != nil {
		return cmd, nil, err
	}
	if cmd.Kind != resource.KindBuffer {
		return cmd, nil, fmt.Errorf("%w: %v decoded as buffer edits", ErrTypeMismatch, cmd.Kind)
	}
	edits := make([]resource.Edit, cmd.Edits)
	if len(edits) > 0 {
		if _, err := binary.Decode(footer, binary.LittleEndian, edits); err != nil {
			return cmd, nil, fmt.Errorf("%w: edits: %v", ErrShortPayload, err)
		}
	}
	return cmd, edits, nil
}

// TextureEdits decodes the edit list of a texture update. Components past
// the texture's dimension are zero.
func (rec Record) TextureEdits() (UpdateCommand, []resource.TextureEdit, error) {
	cmd, footer, err := rec.Update()
	if err != nil {
		return cmd, nil, err
	}
	if !cmd.Kind.IsTexture() {
		return cmd, nil, fmt.Errorf("%w: %v decoded as texture edits", ErrTypeMismatch, cmd.Kind)
	}
	dims := TextureEditDims(cmd.Kind)
	edits := make([]resource.TextureEdit, cmd.Edits)
	for i := range edits {
		e := &edits[i]
		e.Level = binary.LittleEndian.Uint32(footer)
		for axis := range dims {
			e.Offset[axis] = binary.LittleEndian.Uint32(footer[4*(1+axis):])
			e.Size[axis] = binary.LittleEndian.Uint32(footer[4*(1+dims+axis):])
		}
		footer = footer[4*(1+2*dims):]
	}
	return cmd, edits, nil
}

// Draw decodes a draw payload and returns its uniform footer.
func (rec Record) Draw() (DrawCommand, []byte, error) {
	var cmd DrawCommand
	footer, err := decode(rec, TypeDraw, &cmd)
	if err != nil {
		return cmd, nil, err
	}
	if len(footer) < int(cmd.UniformSize) {
		return cmd, nil, fmt.Errorf("%w: %d uniform bytes, want %d", ErrShortPayload, len(footer), cmd.UniformSize)
	}
	return cmd, footer[:cmd.UniformSize], nil
}

// Clear decodes a clear payload.
func (rec Record) Clear() (ClearCommand, error) {
	var cmd ClearCommand
	_, err := decode(rec, TypeClear, &cmd)
	return cmd, err
}

// Blit decodes a blit payload.
func (rec Record) Blit() (BlitCommand, error) {
	var cmd BlitCommand
	_, err := decode(rec, TypeBlit, &cmd)
	return cmd, err
}

// Download decodes a download payload.
func (rec Record) Download() (DownloadCommand, error) {
	var cmd DownloadCommand
	_, err := decode(rec, TypeDownload, &cmd)
	return cmd, err
}

// Profile decodes a profile payload.
func (rec Record) Profile() (ProfileCommand, error) {
	var cmd ProfileCommand
	_, err := decode(rec, TypeProfile, &cmd)
	return cmd, err
}

// String returns the type and tag of the record.
func (rec Record) String() string {
	return rec.Header.Type.String() + " " + rec.Tag.String()
}
