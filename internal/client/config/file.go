package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/voicegate/internal/flagx"
	"github.com/dmitrijs2005/voicegate/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling.
type FileConfig struct {
	ServerURL      string         `json:"server_url" yaml:"server_url"`
	SessionFile    string         `json:"session_file" yaml:"session_file"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// parseFile overlays Config with the file given by -c/-config. Only fields
// present in the file are copied. Read or decode errors panic.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.SessionFile != "" {
		cfg.SessionFile = fc.SessionFile
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
}
