// Package probe measures the playable duration of an uploaded recording.
//
// Three backends are available: WAVProbe decodes the RIFF header in-process,
// FFProbe shells out to the ffprobe binary, and Chain tries several probes in
// order.
package probe

import (
	"context"
	"errors"
	"io"
)

// ErrUnsupportedFormat is returned by a probe that cannot read the given
// container. Chain treats it as "try the next one".
var ErrUnsupportedFormat = errors.New("unsupported media format")

// Source is a readable recording. Location is a local path or URL usable by
// external tools.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Location() string
}

// Probe returns the duration of src in seconds.
type Probe interface {
	Measure(ctx context.Context, src Source) (float64, error)
}
