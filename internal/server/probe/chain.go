package probe

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/voicegate/internal/common"
)

// Chain tries each probe in order. A probe answering ErrUnsupportedFormat
// passes the source on; any other outcome is final. Every failure comes back
// as *common.ProbeError.
type Chain struct {
	probes []Probe
}

func NewChain(probes ...Probe) *Chain {
	return &Chain{probes: probes}
}

func (c *Chain) Measure(ctx context.Context, src Source) (float64, error) {
	var lastErr error = ErrUnsupportedFormat
	for _, p := range c.probes {
		d, err := p.Measure(ctx, src)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if !errors.Is(err, ErrUnsupportedFormat) {
			break
		}
	}

	var pe *common.ProbeError
	if errors.As(lastErr, &pe) {
		return 0, lastErr
	}
	return 0, &common.ProbeError{Err: lastErr}
}
