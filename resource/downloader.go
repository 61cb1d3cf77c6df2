package resource

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrDownloadSize is returned when delivered pixels do not match the
// requested rectangle.
var ErrDownloadSize = errors.New("resource: download size mismatch")

// Downloader receives pixels read back from a render target. A backend
// fills it while processing a download command; the caller reads the
// result after the frame is submitted.
type Downloader struct {
	id     ID
	format gputypes.TextureFormat
	width  uint32
	height uint32
	data   []byte
	ready  bool
}

// NewDownloader creates a Downloader for a width x height rectangle of
// the given format.
func NewDownloader(id ID, format gputypes.TextureFormat, width, height uint32) (*Downloader, error) {
	bpp := BytesPerPixel(format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %v", ErrTextureFormat, format)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: download of %dx%d", ErrTextureSize, width, height)
	}
	return &Downloader{
		id:     id,
		format: format,
		width:  width,
		height: height,
		data:   make([]byte, int(width)*int(height)*bpp),
	}, nil
}

// Kind returns KindDownloader.
func (d *Downloader) Kind() Kind { return KindDownloader }

// ID returns the handle assigned at creation.
func (d *Downloader) ID() ID { return d.id }

// Usage returns the size of the destination buffer.
func (d *Downloader) Usage() int { return len(d.data) }

// Format returns the pixel format of the delivered data.
func (d *Downloader) Format() gputypes.TextureFormat { return d.format }

// Dimensions returns the width and height of the rectangle.
func (d *Downloader) Dimensions() (width, height uint32) { return d.width, d.height }

// Deliver copies tightly packed pixels into the Downloader and marks it
// ready.
func (d *Downloader) Deliver(pixels []byte) error {
	if len(pixels) != len(d.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDownloadSize, len(pixels), len(d.data))
	}
	copy(d.data, pixels)
	d.ready = true
	return nil
}

// Ready reports whether pixels were delivered since the last Reset.
func (d *Downloader) Ready() bool { return d.ready }

// Data returns the delivered pixels. Contents are undefined until Ready.
func (d *Downloader) Data() []byte { return d.data }

// Reset marks the Downloader as waiting for the next delivery.
func (d *Downloader) Reset() { d.ready = false }
