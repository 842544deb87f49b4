package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"loot-tracker/pkg/core"
)

// LoadFromFile loads the configuration from a JSON file. Keys missing from
// the file keep their defaults, and LOOT_TRACKER_* variables override both.
func LoadFromFile(path string, log core.Logger) (*Config, error) {
	log.Debug("Loading configuration from file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("Failed to read config file", err, "path", path)
		return nil, err
	}
	log.Debug("Config file read successfully", "size_bytes", len(data))

	fc := defaultFileConfig()
	if err := json.Unmarshal(data, &fc); err != nil {
		log.Error("Failed to parse config JSON", err)
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	log.Debug("Config JSON parsed successfully")

	return build(fc, log)
}

// build applies environment overrides and validates the result.
func build(fc fileConfig, log core.Logger) (*Config, error) {
	if err := env.Parse(&fc); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c := &Config{
		mode:              strings.ToLower(strings.TrimSpace(fc.Mode)),
		captureSource:     strings.ToLower(strings.TrimSpace(fc.CaptureSource)),
		captureDir:        fc.CaptureDir,
		windowTitles:      fc.WindowTitles,
		processName:       fc.ProcessName,
		screenScale:       fc.ScreenScale,
		recognizer:        strings.ToLower(strings.TrimSpace(fc.Recognizer)),
		ocrURL:            fc.OCRURL,
		tesseractLanguage: fc.TesseractLanguage,
		catalogRegion:     fc.CatalogRegion,
		catalogSearchURL:  fc.CatalogSearchURL,
		catalogDetailURL:  fc.CatalogDetailURL,
		catalogMarketURL:  fc.CatalogMarketURL,
		priceCachePath:    fc.PriceCachePath,
		socketPath:        fc.SocketPath,
		apiAddr:           fc.APIAddr,
		notifyCommand:     fc.NotifyCommand,
		soundThreshold:    fc.SoundThreshold,
		overlay:           fc.Overlay,
		logLevel:          fc.LogLevel,
	}

	switch c.mode {
	case "chat", "drop":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, fc.Mode)
	}
	switch c.recognizer {
	case "http", "tesseract":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecognizer, fc.Recognizer)
	}
	switch c.captureSource {
	case "screen":
	case "directory":
		if c.captureDir == "" {
			return nil, fmt.Errorf("%w: directory source needs capture_dir", ErrInvalidSource)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, fc.CaptureSource)
	}

	if len(fc.DropLogAnchor) != 2 {
		return nil, fmt.Errorf("drop_log_anchor must be [x, y], got %v", fc.DropLogAnchor)
	}
	c.dropLogAnchor = [2]uint32{fc.DropLogAnchor[0], fc.DropLogAnchor[1]}

	var err error
	if c.ocrTimeout, err = parseDuration("ocr_timeout", fc.OCRTimeout); err != nil {
		return nil, err
	}
	if c.priceCacheTTL, err = parseDuration("price_cache_ttl", fc.PriceCacheTTL); err != nil {
		return nil, err
	}
	if c.tickInterval, err = parseDuration("tick_interval", fc.TickInterval); err != nil {
		return nil, err
	}

	log.Debug("Configuration built",
		"mode", c.mode,
		"capture_source", c.captureSource,
		"recognizer", c.recognizer,
		"api_addr", c.apiAddr)
	return c, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}
