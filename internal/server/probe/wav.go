package probe

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	maxWAVChunks = 64
	maxFmtChunk  = 64 << 10
)

// WAVProbe reads the duration from a RIFF/WAVE header: data chunk size
// divided by the byte rate declared in the fmt chunk. Extra chunks (LIST,
// fact, ...) between fmt and data are skipped.
type WAVProbe struct{}

func NewWAVProbe() *WAVProbe { return &WAVProbe{} }

func (p *WAVProbe) Measure(ctx context.Context, src Source) (float64, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	return WAVDuration(bufio.NewReader(rc))
}

// WAVDuration parses a WAV stream up to its data chunk header.
func WAVDuration(r io.Reader) (float64, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, fmt.Errorf("%w: short header", ErrUnsupportedFormat)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrUnsupportedFormat)
	}

	var byteRate uint32
	for i := 0; i < maxWAVChunks; i++ {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return 0, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, fmt.Errorf("fmt chunk too small: %d", size)
			}
			if size > maxFmtChunk {
				return 0, fmt.Errorf("fmt chunk too large: %d", size)
			}
			var fmtChunk [16]byte
			if _, err := io.ReadFull(r, fmtChunk[:]); err != nil {
				return 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			byteRate = binary.LittleEndian.Uint32(fmtChunk[8:12])
			if byteRate == 0 {
				return 0, errors.New("invalid byte rate: 0")
			}
			// Extension bytes and the pad byte.
			if rest := int64(size) - 16 + int64(size%2); rest > 0 {
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return 0, fmt.Errorf("skip fmt extension: %w", err)
				}
			}
		case "data":
			if byteRate == 0 {
				return 0, errors.New("data chunk before fmt chunk")
			}
			if size == 0xFFFFFFFF {
				return 0, errors.New("data chunk size unknown (streamed WAV)")
			}
			return float64(size) / float64(byteRate), nil
		default:
			skip := int64(size) + int64(size%2)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return 0, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
	return 0, errors.New("data chunk not found")
}
