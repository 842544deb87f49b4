// Package calibrate narrows the capture rectangle to where loot text appears.
package calibrate

import (
	"fmt"
	"math"

	"loot-tracker/internal/loot"
)

const (
	ChatFPS = 20.0
	DropFPS = 2.4

	// drop log panel size as a percentage of the screen at 100% scale
	dropPanelWidth  = 0.139
	dropPanelHeight = 0.157
	// room for item names longer than the panel
	dropWidthMargin = 150
)

var (
	// DefaultChatRegion is used when the first read had no loot lines.
	DefaultChatRegion = Region{X: 1000, Y: 400, Width: 920, Height: 640}
	// DefaultDropAnchor is the center of the drop log panel.
	DefaultDropAnchor = Point{X: 1315, Y: 640}
)

// Region is a rectangle in source pixels. A zero Width and Height means the
// whole capture target.
type Region struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func (r Region) IsFull() bool {
	return r.Width == 0 && r.Height == 0
}

func (r Region) String() string {
	if r.IsFull() {
		return "full"
	}
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

type Point struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// Detection is one recognized text fragment and its bounding box.
type Detection struct {
	Text string `json:"text"`
	Box  Region `json:"box"`
}

// Screen describes the capture target. Scale is the display scale in percent.
type Screen struct {
	Width  uint32
	Height uint32
	Scale  float64
}

// Calibration is the region and frame rate the capturer should switch to.
type Calibration struct {
	Region Region
	FPS    float64
}

// Calibrate computes the capture region for mode.
//
// ChatLog takes the envelope of every detection whose text parses as a loot
// line. DropLog ignores detections and centers a panel-sized rectangle on
// anchor.
func Calibrate(mode loot.Mode, detections []Detection, screen Screen, anchor Point) Calibration {
	if mode == loot.DropLog {
		return dropLog(screen, anchor)
	}
	return chatLog(detections)
}

// FPS is the capture rate for mode.
func FPS(mode loot.Mode) float64 {
	if mode == loot.DropLog {
		return DropFPS
	}
	return ChatFPS
}

func chatLog(detections []Detection) Calibration {
	var minX, minY, maxX, maxY uint32
	found := false

	for _, d := range detections {
		if _, ok := loot.Parse(loot.ChatLog, d.Text); !ok {
			continue
		}
		right, bottom := d.Box.X+d.Box.Width, d.Box.Y+d.Box.Height
		if !found {
			minX, minY, maxX, maxY = d.Box.X, d.Box.Y, right, bottom
			found = true
			continue
		}
		minX = min(minX, d.Box.X)
		minY = min(minY, d.Box.Y)
		maxX = max(maxX, right)
		maxY = max(maxY, bottom)
	}

	if !found {
		return Calibration{Region: DefaultChatRegion, FPS: ChatFPS}
	}
	return Calibration{
		Region: Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
		FPS:    ChatFPS,
	}
}

func dropLog(screen Screen, anchor Point) Calibration {
	scale := screen.Scale
	if scale <= 0 {
		scale = 100
	}

	width := uint32(math.Ceil(float64(screen.Width) * scale * dropPanelWidth / 100))
	height := uint32(math.Ceil(float64(screen.Height) * scale * dropPanelHeight / 100 * 2))

	r := Region{Width: width + dropWidthMargin, Height: height}
	if half := width / 2; anchor.X > half {
		r.X = anchor.X - half
	}
	if half := height / 2; anchor.Y > half {
		r.Y = anchor.Y - half
	}
	return Calibration{Region: r, FPS: DropFPS}
}
