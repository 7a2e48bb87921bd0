package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFileVar names the variable that points at an alternative .env file.
const envFileVar = "ENV_FILE"

// parseEnv loads a .env file (if present) into the process environment
// without overriding variables that are already set, then overlays every
// recognised variable onto config. Malformed values panic.
func parseEnv(config *Config) {
	envFile := os.Getenv(envFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", envFile, err))
	}

	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.AccessTokenSecret, "JWT_ACCESS_SECRET")
	envString(&config.RefreshTokenSecret, "JWT_REFRESH_SECRET")
	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	envString(&config.TranscriptionURL, "AI_SERVICE_URL")
	envDuration(&config.TranscriptionTimeout, "AI_SERVICE_TIMEOUT")
	envString(&config.ProbeBackend, "PROBE_BACKEND")
	envString(&config.FFProbePath, "FFPROBE_PATH")
	envDuration(&config.ProbeTimeout, "PROBE_TIMEOUT")
	envString(&config.UploadBackend, "UPLOAD_BACKEND")
	envString(&config.UploadDir, "UPLOAD_DIR")
	envInt64(&config.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envInt64(&config.InitialCredits, "INITIAL_CREDITS")

	var limit int64 = int64(config.AuthRateLimitPerMinute)
	envInt64(&limit, "AUTH_RATE_LIMIT")
	config.AuthRateLimitPerMinute = int(limit)

	envString(&config.LogBackend, "LOG_BACKEND")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	*dst = d
}

func envInt64(dst *int64, name string) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	*dst = n
}
