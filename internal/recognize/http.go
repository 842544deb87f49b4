package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"loot-tracker/internal/calibrate"
	"loot-tracker/internal/capture"
)

const DefaultURL = "http://127.0.0.1:8000"

// HTTP posts frames to an OCR server's /ocr endpoint.
type HTTP struct {
	endpoint string
	client   *http.Client
}

func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &HTTP{
		endpoint: strings.TrimRight(baseURL, "/") + "/ocr",
		client:   &http.Client{Timeout: timeout},
	}
}

type ocrResponse struct {
	Result []struct {
		Text string `json:"text"`
		Area struct {
			Top    int `json:"top"`
			Left   int `json:"left"`
			Right  int `json:"right"`
			Bottom int `json:"bottom"`
		} `json:"area"`
		Score float64 `json:"score"`
	} `json:"result"`
}

func (h *HTTP) Recognize(ctx context.Context, frame capture.Frame) ([]calibrate.Detection, error) {
	body, contentType, err := encodeForm(frame)
	if err != nil {
		return nil, &Error{Engine: "http", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return nil, &Error{Engine: "http", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &Error{Engine: "http", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{Engine: "http", Err: fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))}
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Engine: "http", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	detections := make([]calibrate.Detection, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		detections = append(detections, calibrate.Detection{
			Text: Sanitize(r.Text),
			Box:  Box(r.Area.Left, r.Area.Top, r.Area.Right, r.Area.Bottom),
		})
	}
	return detections, nil
}

// encodeForm builds the multipart body: the raw RGB pixels as "file" plus
// the frame dimensions.
func encodeForm(frame capture.Frame) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="file.png"`)
	header.Set("Content-Type", "image/png")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(frame.Pixels); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("width", strconv.Itoa(frame.Width)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("height", strconv.Itoa(frame.Height)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
