// Package config loads runtime configuration for the voicegate CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the gateway (http://host:port)
//	-s string   path of the session file holding the token pair
//	-t int      request timeout (seconds)
//
// Everything after the flags is the command and its arguments, e.g.
//
//	voicegate-cli -a http://127.0.0.1:3000 transcribe memo.wav
//
// # File schema
//
// Durations are timex.Duration, so they may be strings like "6m" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "session_file": "/home/me/.config/voicegate/session.json",
//	  "request_timeout": "6m"
//	}
package config
