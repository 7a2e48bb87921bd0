package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-l string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   access token HMAC secret
//	-k string   refresh token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-e string   transcription engine base URL
//	-x int      transcription timeout, seconds
//	-p string   duration probe backend (auto, wav, ffprobe)
//	-u string   upload backend (local, s3)
//	-f string   local upload directory
//	-b string   S3 bucket name
//	-g string   S3 region
//	-n string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-i int      credits granted at signup
//	-q int      auth requests per minute per client (0 disables)
//
// os.Args is filtered with flagx.FilterArgs first; -c belongs to parseFile.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		"-a", "-l", "-d", "-s", "-k", "-t", "-r", "-e", "-x", "-p", "-u", "-f", "-b", "-g", "-n", "-i", "-q",
	)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "l", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "k", config.RefreshTokenSecret, "refresh token secret")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.TranscriptionURL, "e", config.TranscriptionURL, "transcription engine URL")
	transcriptionTimeout := fs.Int("x", int(config.TranscriptionTimeout.Seconds()), "transcription timeout (in seconds)")

	fs.StringVar(&config.ProbeBackend, "p", config.ProbeBackend, "duration probe backend")
	fs.StringVar(&config.UploadBackend, "u", config.UploadBackend, "upload backend")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "n", config.S3BaseEndpoint, "S3 base endpoint")
	fs.Int64Var(&config.InitialCredits, "i", config.InitialCredits, "credits granted at signup")
	fs.IntVar(&config.AuthRateLimitPerMinute, "q", config.AuthRateLimitPerMinute, "auth requests per minute per client")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
	config.TranscriptionTimeout = time.Duration(*transcriptionTimeout) * time.Second
}
