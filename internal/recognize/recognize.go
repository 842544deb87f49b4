// Package recognize turns captured frames into text detections.
package recognize

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"loot-tracker/internal/calibrate"
	"loot-tracker/internal/capture"
)

// Recognizer extracts text lines with their bounding boxes from a frame.
type Recognizer interface {
	Recognize(ctx context.Context, frame capture.Frame) ([]calibrate.Detection, error)
}

// Error is a failed recognition of a single frame.
type Error struct {
	Engine string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s recognition: %v", e.Engine, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Sanitize keeps printable ASCII and whitespace.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsGraphic(r) || unicode.IsSpace(r)) {
			return r
		}
		return -1
	}, s)
}

// Box converts edge coordinates to a region, clamping inverted edges to zero size.
func Box(left, top, right, bottom int) calibrate.Region {
	r := calibrate.Region{X: uint32(max(left, 0)), Y: uint32(max(top, 0))}
	if right > left {
		r.Width = uint32(right - left)
	}
	if bottom > top {
		r.Height = uint32(bottom - top)
	}
	return r
}
