// Package flagx lets several config layers read their own flags from one
// command line.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps the flags named in allowed, with their values, and drops
// everything else. Names are given without dashes; "-c", "--c", "-c=v" and
// "--c=v" all match "c". A separate value is kept only if it does not start
// with "-". Scanning stops at a "--" terminator. The result is never nil.
func FilterArgs(args []string, allowed ...string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, n := range allowed {
		names[strings.TrimLeft(n, "-")] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, hasValue, ok := flagName(arg)
		if !ok {
			continue
		}
		if _, keep := names[name]; !keep {
			continue
		}

		filtered = append(filtered, arg)
		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// flagName splits "-name", "--name" or "-name=value".
func flagName(arg string) (name string, hasValue, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false, false
	}
	name = strings.TrimLeft(arg, "-")
	if name == "" {
		return "", false, false
	}
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], true, true
	}
	return name, false, true
}

// ConfigFileFlag returns the path given with -c or -config on the process
// command line, or "".
func ConfigFileFlag() string {
	return ConfigFileFrom(os.Args[1:])
}

// ConfigFileFrom is ConfigFileFlag for an explicit argument list. When both
// forms are present the last one wins.
func ConfigFileFrom(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file (JSON or YAML)")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, "c", "config"))

	return path
}
