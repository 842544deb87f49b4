package config

import (
	"errors"
	"time"
)

var (
	ErrInvalidMode       = errors.New("invalid detection mode")
	ErrInvalidRecognizer = errors.New("invalid recognizer")
	ErrInvalidSource     = errors.New("invalid capture source")
)

// Config holds the application configuration.
type Config struct {
	// Configurable via JSON file and environment (private fields to enforce immutability)
	mode              string
	captureSource     string
	captureDir        string
	windowTitles      []string
	processName       string
	screenScale       float64
	dropLogAnchor     [2]uint32
	recognizer        string
	ocrURL            string
	ocrTimeout        time.Duration
	tesseractLanguage string
	catalogRegion     string
	catalogSearchURL  string
	catalogDetailURL  string
	catalogMarketURL  string
	priceCachePath    string
	priceCacheTTL     time.Duration
	socketPath        string
	apiAddr           string
	notifyCommand     string
	soundThreshold    uint64
	tickInterval      time.Duration
	overlay           bool
	logLevel          string
}

// GetMode returns "chat" or "drop".
func (c *Config) GetMode() string {
	return c.mode
}

// GetCaptureSource returns "screen" or "directory".
func (c *Config) GetCaptureSource() string {
	return c.captureSource
}

func (c *Config) GetCaptureDir() string {
	return c.captureDir
}

// GetWindowTitles returns a copy of the window titles that identify the game.
func (c *Config) GetWindowTitles() []string {
	return append([]string(nil), c.windowTitles...)
}

func (c *Config) GetProcessName() string {
	return c.processName
}

// GetScreenScale returns the display scale in percent; 0 means detect.
func (c *Config) GetScreenScale() float64 {
	return c.screenScale
}

func (c *Config) GetDropLogAnchor() (x, y uint32) {
	return c.dropLogAnchor[0], c.dropLogAnchor[1]
}

// GetRecognizer returns "http" or "tesseract".
func (c *Config) GetRecognizer() string {
	return c.recognizer
}

func (c *Config) GetOCRURL() string {
	return c.ocrURL
}

func (c *Config) GetOCRTimeout() time.Duration {
	return c.ocrTimeout
}

func (c *Config) GetTesseractLanguage() string {
	return c.tesseractLanguage
}

func (c *Config) GetCatalogRegion() string {
	return c.catalogRegion
}

// GetCatalogURLs returns the search, detail and market endpoints.
func (c *Config) GetCatalogURLs() (search, detail, market string) {
	return c.catalogSearchURL, c.catalogDetailURL, c.catalogMarketURL
}

func (c *Config) GetPriceCachePath() string {
	return c.priceCachePath
}

func (c *Config) GetPriceCacheTTL() time.Duration {
	return c.priceCacheTTL
}

func (c *Config) GetSocketPath() string {
	return c.socketPath
}

// GetAPIAddr returns the HTTP listen address; empty disables the API.
func (c *Config) GetAPIAddr() string {
	return c.apiAddr
}

// GetNotifyCommand returns the notify command.
func (c *Config) GetNotifyCommand() string {
	return c.notifyCommand
}

// GetSoundThreshold returns the drop value that triggers a sound; 0 disables it.
func (c *Config) GetSoundThreshold() uint64 {
	return c.soundThreshold
}

func (c *Config) GetTickInterval() time.Duration {
	return c.tickInterval
}

func (c *Config) GetOverlay() bool {
	return c.overlay
}

func (c *Config) GetLogLevel() string {
	return c.logLevel
}
