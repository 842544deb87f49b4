// Package tesseract recognizes frames in-process through libtesseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"loot-tracker/internal/calibrate"
	"loot-tracker/internal/capture"
	"loot-tracker/internal/recognize"
)

// Engine wraps a gosseract client. The client is not goroutine-safe, so
// calls are serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func New(language string) (*Engine, error) {
	client := gosseract.NewClient()
	if language == "" {
		language = "eng"
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set tesseract language: %w", err)
	}
	return &Engine{client: client}, nil
}

func (t *Engine) Recognize(ctx context.Context, frame capture.Frame) ([]calibrate.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, &recognize.Error{Engine: "tesseract", Err: err}
	}

	png, err := preprocess(frame)
	if err != nil {
		return nil, &recognize.Error{Engine: "tesseract", Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(png); err != nil {
		return nil, &recognize.Error{Engine: "tesseract", Err: err}
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, &recognize.Error{Engine: "tesseract", Err: err}
	}

	detections := make([]calibrate.Detection, 0, len(boxes))
	for _, b := range boxes {
		detections = append(detections, calibrate.Detection{
			Text: recognize.Sanitize(b.Word),
			Box:  recognize.Box(b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y),
		})
	}
	return detections, nil
}

func (t *Engine) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

// preprocess grayscales and sharpens the frame, keeping its geometry so
// boxes stay in frame coordinates.
func preprocess(frame capture.Frame) ([]byte, error) {
	img := imaging.Grayscale(frame.Image())
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 0.5)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
