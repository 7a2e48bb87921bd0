package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()

	b, err := json.Marshal(map[string]any{
		"endpoint_addr_http":              "www.example:9000",
		"database_dsn":                    "pg",
		"access_token_secret":             "a",
		"refresh_token_secret":            "r",
		"access_token_validity_duration":  "15m",
		"refresh_token_validity_duration": "48h",
		"transcription_timeout":           "2m",
		"upload_backend":                  "s3",
		"s3_bucket":                       "bucket",
		"initial_credits":                 0,
	})
	require.NoError(t, err)
	jsonPath := writeTempFile(t, dir, "cfg.json", b)

	yamlPath := writeTempFile(t, dir, "cfg.yaml", []byte(
		"endpoint_addr_grpc: \":7000\"\n"+
			"probe_backend: ffprobe\n"+
			"probe_timeout: 10s\n"+
			"auth_rate_limit_per_minute: 5\n"+
			"log_backend: zap\n"))

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", jsonPath}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC, "absent fields keep their value")
		assert.Equal(t, "pg", cfg.DatabaseDSN)
		assert.Equal(t, "a", cfg.AccessTokenSecret)
		assert.Equal(t, "r", cfg.RefreshTokenSecret)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 48*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 2*time.Minute, cfg.TranscriptionTimeout)
		assert.Equal(t, UploadBackendS3, cfg.UploadBackend)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, int64(0), cfg.InitialCredits, "explicit zero overrides default")
	})

	t.Run("loads from yaml", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", yamlPath}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, ":7000", cfg.EndpointAddrGRPC)
		assert.Equal(t, ProbeBackendFFProbe, cfg.ProbeBackend)
		assert.Equal(t, 10*time.Second, cfg.ProbeTimeout)
		assert.Equal(t, 5, cfg.AuthRateLimitPerMinute)
		assert.Equal(t, LogBackendZap, cfg.LogBackend)
		assert.Equal(t, int64(10), cfg.InitialCredits)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", DatabaseDSN: "dsn"}
		parseFile(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "dsn", cfg.DatabaseDSN)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := writeTempFile(t, dir, "bad.json", []byte(`{ this is not valid json`))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.yaml")}

		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
