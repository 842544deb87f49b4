// Package capture produces frames of the watched screen region.
package capture

import (
	"context"
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"loot-tracker/internal/calibrate"
)

var (
	ErrTargetNotFound = errors.New("capture target not found")
	ErrNotStarted     = errors.New("capturer not started")
	ErrStopped        = errors.New("capturer stopped")
)

// Frame is a tightly packed RGB image, three bytes per pixel, row-major.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
}

// Capturer is the frame source of a tracking session.
type Capturer interface {
	Start(ctx context.Context) error
	Stop() error
	// NextFrame blocks until a frame is due.
	NextFrame(ctx context.Context) (Frame, error)
	// Reconfigure narrows capture to region at fps frames per second.
	Reconfigure(region calibrate.Region, fps float64) error
	// Bounds is the size of the whole target.
	Bounds() (width, height int)
}

// FromImage converts any image to a packed RGB frame, dropping alpha.
func FromImage(img image.Image) Frame {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	pixels := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			pixels = append(pixels, row[x], row[x+1], row[x+2])
		}
	}
	return Frame{Pixels: pixels, Width: w, Height: h}
}

// Image expands the frame back to an opaque NRGBA image.
func (f Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i+2 < len(f.Pixels) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pixels[i]
		img.Pix[j+1] = f.Pixels[i+1]
		img.Pix[j+2] = f.Pixels[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// clip intersects region with a width x height target. A full region or one
// entirely outside the target yields the whole target.
func clip(region calibrate.Region, width, height int) image.Rectangle {
	whole := image.Rect(0, 0, width, height)
	if region.IsFull() {
		return whole
	}
	r := image.Rect(int(region.X), int(region.Y),
		int(region.X)+int(region.Width), int(region.Y)+int(region.Height)).Intersect(whole)
	if r.Empty() {
		return whole
	}
	return r
}
