// Package config loads annotator configuration from environment variables
// and an optional .env file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the annotator service.
type Config struct {
	// HTTP command surface
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Logging
	LogLevel string
	LogFile  string

	// Persistence
	AnnotationsDir string
	JournalDir     string
	JournalMaxMB   int
	JournalBuffer  int

	// Interaction tuning
	HitTolerancePx float64
	SnapStep       float64

	// Canvas backend: "memory" or "tradingview"
	CanvasBackend string

	// TradingView canvas (only used when CanvasBackend == "tradingview")
	CDPAddress    string
	CDPPort       int
	TabURLFilter  string
	EvalTimeoutMS int
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:         getEnvOrDefault("ANNOTATOR_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:   splitList(getEnvOrDefault("ANNOTATOR_PORT_CANDIDATES", "127.0.0.1:8190,127.0.0.1:8191,127.0.0.1:8192")),
		PortAutoFallback: getEnvBoolOrDefault("ANNOTATOR_PORT_AUTO_FALLBACK", true),
		LogLevel:         strings.ToLower(getEnvOrDefault("ANNOTATOR_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("ANNOTATOR_LOG_FILE", "logs/annotator.log"),
		AnnotationsDir:   getEnvOrDefault("ANNOTATOR_DATA_DIR", "./annotations"),
		JournalDir:       getEnvOrDefault("ANNOTATOR_JOURNAL_DIR", "./journal"),
		JournalMaxMB:     getEnvIntOrDefault("ANNOTATOR_JOURNAL_MAX_MB", 25),
		JournalBuffer:    getEnvIntOrDefault("ANNOTATOR_JOURNAL_BUFFER", 1024),
		HitTolerancePx:   getEnvFloatOrDefault("ANNOTATOR_HIT_TOLERANCE_PX", 10),
		SnapStep:         getEnvFloatOrDefault("ANNOTATOR_SNAP_STEP", 0),
		CanvasBackend:    strings.ToLower(getEnvOrDefault("ANNOTATOR_CANVAS", "memory")),
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		TabURLFilter:     getEnvOrDefault("ANNOTATOR_TAB_URL_FILTER", "tradingview.com"),
		EvalTimeoutMS:    getEnvIntOrDefault("ANNOTATOR_EVAL_TIMEOUT_MS", 5000),
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint for the TradingView canvas backend.
func (c *Config) CDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
