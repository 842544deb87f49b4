package config

import "loot-tracker/pkg/core"

// fileConfig is the on-disk and environment representation of Config.
// Durations are strings in time.ParseDuration form.
type fileConfig struct {
	Mode              string   `json:"mode"               env:"LOOT_TRACKER_MODE"`
	CaptureSource     string   `json:"capture_source"     env:"LOOT_TRACKER_CAPTURE_SOURCE"`
	CaptureDir        string   `json:"capture_dir"        env:"LOOT_TRACKER_CAPTURE_DIR"`
	WindowTitles      []string `json:"window_titles"      env:"LOOT_TRACKER_WINDOW_TITLES" envSeparator:","`
	ProcessName       string   `json:"process_name"       env:"LOOT_TRACKER_PROCESS_NAME"`
	ScreenScale       float64  `json:"screen_scale"       env:"LOOT_TRACKER_SCREEN_SCALE"`
	DropLogAnchor     []uint32 `json:"drop_log_anchor"    env:"LOOT_TRACKER_DROP_LOG_ANCHOR" envSeparator:","`
	Recognizer        string   `json:"recognizer"         env:"LOOT_TRACKER_RECOGNIZER"`
	OCRURL            string   `json:"ocr_url"            env:"LOOT_TRACKER_OCR_URL"`
	OCRTimeout        string   `json:"ocr_timeout"        env:"LOOT_TRACKER_OCR_TIMEOUT"`
	TesseractLanguage string   `json:"tesseract_language" env:"LOOT_TRACKER_TESSERACT_LANGUAGE"`
	CatalogRegion     string   `json:"catalog_region"     env:"LOOT_TRACKER_CATALOG_REGION"`
	CatalogSearchURL  string   `json:"catalog_search_url" env:"LOOT_TRACKER_CATALOG_SEARCH_URL"`
	CatalogDetailURL  string   `json:"catalog_detail_url" env:"LOOT_TRACKER_CATALOG_DETAIL_URL"`
	CatalogMarketURL  string   `json:"catalog_market_url" env:"LOOT_TRACKER_CATALOG_MARKET_URL"`
	PriceCachePath    string   `json:"price_cache_path"   env:"LOOT_TRACKER_PRICE_CACHE_PATH"`
	PriceCacheTTL     string   `json:"price_cache_ttl"    env:"LOOT_TRACKER_PRICE_CACHE_TTL"`
	SocketPath        string   `json:"socket_path"        env:"LOOT_TRACKER_SOCKET_PATH"`
	APIAddr           string   `json:"api_addr"           env:"LOOT_TRACKER_API_ADDR"`
	NotifyCommand     string   `json:"notify_command"     env:"LOOT_TRACKER_NOTIFY_COMMAND"`
	SoundThreshold    uint64   `json:"sound_threshold"    env:"LOOT_TRACKER_SOUND_THRESHOLD"`
	TickInterval      string   `json:"tick_interval"      env:"LOOT_TRACKER_TICK_INTERVAL"`
	Overlay           bool     `json:"overlay"            env:"LOOT_TRACKER_OVERLAY"`
	LogLevel          string   `json:"log_level"          env:"LOOT_TRACKER_LOG_LEVEL"`
}

// defaultFileConfig is the configuration written on first run.
func defaultFileConfig() fileConfig {
	return fileConfig{
		Mode:              "chat",
		CaptureSource:     "screen",
		WindowTitles:      []string{"BLACK DESERT"},
		ProcessName:       "BlackDesert64",
		DropLogAnchor:     []uint32{1315, 640},
		Recognizer:        "http",
		OCRURL:            "http://127.0.0.1:8000",
		OCRTimeout:        "5s",
		TesseractLanguage: "eng",
		CatalogRegion:     "SEA",
		CatalogSearchURL:  "https://apiv2.bdolytics.com/en/{region}/db/query-extended",
		CatalogDetailURL:  "https://bdolytics.com/api/trpc/database.getEntity",
		CatalogMarketURL:  "https://apiv2.bdolytics.com/market/analytics/{id}",
		PriceCachePath:    "~/.local/share/loot-tracker/prices.db",
		PriceCacheTTL:     "6h",
		SocketPath:        "/tmp/loot-tracker.sock",
		APIAddr:           "127.0.0.1:8787",
		SoundThreshold:    100_000_000,
		TickInterval:      "1s",
		LogLevel:          "info",
	}
}

// DefaultConfig creates a default configuration.
func DefaultConfig(log core.Logger) (*Config, error) {
	log.Debug("Creating default configuration")
	return build(defaultFileConfig(), log)
}
