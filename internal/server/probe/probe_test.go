package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
)

// memSource is an in-memory Source.
type memSource struct {
	data    []byte
	loc     string
	openErr error
}

func (s *memSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *memSource) Location() string { return s.loc }

// buildWAV returns a PCM WAV with the given format and dataSize bytes of
// silence. Extra chunks are inserted between fmt and data.
func buildWAV(sampleRate uint32, channels, bits uint16, dataSize uint32, extra ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")

	body.WriteString("fmt ")
	_ = binary.Write(&body, binary.LittleEndian, uint32(16))
	_ = binary.Write(&body, binary.LittleEndian, uint16(1))
	_ = binary.Write(&body, binary.LittleEndian, channels)
	_ = binary.Write(&body, binary.LittleEndian, sampleRate)
	_ = binary.Write(&body, binary.LittleEndian, sampleRate*uint32(channels)*uint32(bits)/8)
	_ = binary.Write(&body, binary.LittleEndian, channels*bits/8)
	_ = binary.Write(&body, binary.LittleEndian, bits)

	for _, e := range extra {
		body.Write(e)
	}

	body.WriteString("data")
	_ = binary.Write(&body, binary.LittleEndian, dataSize)
	body.Write(make([]byte, dataSize))

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func chunk(id string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	if len(payload)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// fakeProbe returns fixed results and counts calls.
type fakeProbe struct {
	d     float64
	err   error
	calls int
}

func (f *fakeProbe) Measure(ctx context.Context, src Source) (float64, error) {
	f.calls++
	return f.d, f.err
}

var errBoom = errors.New("boom")
