package config

import (
	"flag"
	"io"
	"time"
)

// parseFlags populates Config fields from command-line flags and stores the
// remaining arguments (the command) in cfg.Args. Flags must precede the
// command. Parse errors panic.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("voicegate-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the gateway")
	fs.StringVar(&cfg.SessionFile, "s", cfg.SessionFile, "session file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	// Owned by parseFile; declared so that they are skipped here.
	fs.String("c", "", "config file")
	fs.String("config", "", "config file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.Args = fs.Args()
}
