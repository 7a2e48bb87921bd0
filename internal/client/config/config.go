package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the voicegate CLI.
//
// Fields:
//   - ServerURL: base URL of the gateway HTTP API.
//   - SessionFile: where the current token pair is kept between runs.
//   - RequestTimeout: upper bound for a single API call, transcription included.
//   - Args: the command and its arguments (non-flag arguments).
type Config struct {
	ServerURL      string
	SessionFile    string
	RequestTimeout time.Duration
	Args           []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.SessionFile = defaultSessionFile()
	c.RequestTimeout = 6 * time.Minute
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".voicegate-session.json"
	}
	return filepath.Join(dir, "voicegate", "session.json")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if any) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg, os.Args[1:])
	return cfg
}
