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

// FileConfig is the on-disk shape of the configuration. Durations accept
// either Go duration strings ("5m") or integer nanoseconds.
type FileConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	AccessTokenSecret            string         `json:"access_token_secret" yaml:"access_token_secret"`
	RefreshTokenSecret           string         `json:"refresh_token_secret" yaml:"refresh_token_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	TranscriptionURL             string         `json:"transcription_url" yaml:"transcription_url"`
	TranscriptionTimeout         timex.Duration `json:"transcription_timeout" yaml:"transcription_timeout"`
	ProbeBackend                 string         `json:"probe_backend" yaml:"probe_backend"`
	FFProbePath                  string         `json:"ffprobe_path" yaml:"ffprobe_path"`
	ProbeTimeout                 timex.Duration `json:"probe_timeout" yaml:"probe_timeout"`
	UploadBackend                string         `json:"upload_backend" yaml:"upload_backend"`
	UploadDir                    string         `json:"upload_dir" yaml:"upload_dir"`
	MaxUploadBytes               int64          `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	S3RootUser                   string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	InitialCredits               *int64         `json:"initial_credits" yaml:"initial_credits"`
	AuthRateLimitPerMinute       *int           `json:"auth_rate_limit_per_minute" yaml:"auth_rate_limit_per_minute"`
	LogBackend                   string         `json:"log_backend" yaml:"log_backend"`
}

// parseFile overlays values from the file passed with -c/-config. The format
// is chosen by extension: .yaml/.yml are YAML, anything else is JSON. Only
// fields present in the file override the current values. A file that cannot
// be read or decoded panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	setString(&config.TranscriptionURL, c.TranscriptionURL)
	if c.TranscriptionTimeout.Duration > 0 {
		config.TranscriptionTimeout = c.TranscriptionTimeout.Duration
	}
	setString(&config.ProbeBackend, c.ProbeBackend)
	setString(&config.FFProbePath, c.FFProbePath)
	if c.ProbeTimeout.Duration > 0 {
		config.ProbeTimeout = c.ProbeTimeout.Duration
	}
	setString(&config.UploadBackend, c.UploadBackend)
	setString(&config.UploadDir, c.UploadDir)
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.InitialCredits != nil {
		config.InitialCredits = *c.InitialCredits
	}
	if c.AuthRateLimitPerMinute != nil {
		config.AuthRateLimitPerMinute = *c.AuthRateLimitPerMinute
	}
	setString(&config.LogBackend, c.LogBackend)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
