package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/auth"
	"github.com/dmitrijs2005/voicegate/internal/server/metrics"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/dmitrijs2005/voicegate/internal/server/probe"
	"github.com/dmitrijs2005/voicegate/internal/server/uploads"
)

const cleanupTimeout = 30 * time.Second

// AccessVerifier checks bearer tokens.
type AccessVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// Charger debits a user for a recording.
type Charger interface {
	ChargeUser(ctx context.Context, userID string, seconds float64) (*models.ChargeResult, error)
}

// Transcriber calls the external engine.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*models.Transcript, error)
}

// Pipeline runs one metered transcription: authenticate, measure, charge,
// transcribe. The staged upload is released exactly once when Process
// returns, whatever the outcome. A charge is not refunded when the engine
// fails afterwards.
type Pipeline struct {
	tokens      AccessVerifier
	probe       probe.Probe
	billing     Charger
	transcriber Transcriber
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewPipeline(tokens AccessVerifier, p probe.Probe, billing Charger, transcriber Transcriber,
	logger logging.Logger, mt *metrics.Metrics) *Pipeline {
	return &Pipeline{
		tokens:      tokens,
		probe:       p,
		billing:     billing,
		transcriber: transcriber,
		logger:      logger.With("module", "pipeline"),
		metrics:     mt,
	}
}

// Process takes ownership of res.
func (p *Pipeline) Process(ctx context.Context, accessToken string, res uploads.Resource) (result *models.ProcessResult, err error) {
	defer p.release(ctx, res)
	defer func() { p.countOutcome(err) }()

	claims, err := p.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	log := p.logger.With("user_id", claims.UserID, "file", res.Name())
	log.Info(ctx, "job started")

	seconds, err := p.probe.Measure(ctx, res)
	if err != nil {
		var pe *common.ProbeError
		if !errors.As(err, &pe) {
			err = &common.ProbeError{Err: err}
		}
		return nil, err
	}
	if p.metrics != nil && seconds > 0 {
		p.metrics.AudioSeconds.Observe(seconds)
	}

	charge, err := p.billing.ChargeUser(ctx, claims.UserID, seconds)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "billing ok", "cost", charge.Cost, "seconds", seconds)

	audio, err := res.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("reopen upload: %w", err)
	}
	defer audio.Close()

	started := time.Now()
	transcript, err := p.transcriber.Transcribe(ctx, res.Name(), audio)
	if p.metrics != nil {
		p.metrics.TranscriptionDuration.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		log.Error(ctx, "transcription failed after charge", "cost", charge.Cost, "error", err)
		return nil, err
	}

	return &models.ProcessResult{Transcript: *transcript, Billing: *charge, Duration: seconds}, nil
}

// release runs even when ctx is already cancelled; its errors are logged only.
func (p *Pipeline) release(ctx context.Context, res uploads.Resource) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := res.Release(cctx); err != nil {
		if p.metrics != nil {
			p.metrics.CleanupFailures.Inc()
		}
		p.logger.Error(ctx, "upload cleanup failed", "location", res.Location(), "error", err)
		return
	}
	p.logger.Info(ctx, "upload cleaned up", "file", res.Name())
}

func (p *Pipeline) countOutcome(err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.PipelineOutcomes.WithLabelValues(Outcome(err)).Inc()
}

// Outcome classifies a pipeline error for metrics and logs.
func Outcome(err error) string {
	var (
		ae *common.AuthError
		fe *common.InsufficientFundsError
		de *common.DownstreamError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &ae):
		return metrics.OutcomeUnauthorized
	case errors.Is(err, common.ErrProbeFailed):
		return metrics.OutcomeProbeFailed
	case errors.Is(err, common.ErrInvalidDuration):
		return metrics.OutcomeInvalidDuration
	case errors.As(err, &fe):
		return metrics.OutcomeInsufficientFunds
	case errors.As(err, &de) && de.Kind == common.DownstreamTimeout:
		return metrics.OutcomeDownstreamTimeout
	case errors.As(err, &de):
		return metrics.OutcomeDownstreamUnavailable
	default:
		return metrics.OutcomeInternal
	}
}
