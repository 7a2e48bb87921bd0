package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/http/middleware"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/dmitrijs2005/voicegate/internal/server/uploads"
	"github.com/gin-gonic/gin"
)

const audioFormField = "audio"

// Processor runs the metered transcription of one staged upload and owns it
// from then on.
type Processor interface {
	Process(ctx context.Context, accessToken string, res uploads.Resource) (*models.ProcessResult, error)
}

type VoiceHandler struct {
	store          uploads.Store
	pipeline       Processor
	maxUploadBytes int64
	logger         logging.Logger
}

func NewVoiceHandler(store uploads.Store, pipeline Processor, maxUploadBytes int64, logger logging.Logger) *VoiceHandler {
	return &VoiceHandler{
		store:          store,
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("module", "voice_handler"),
	}
}

type billingPayload struct {
	Cost             int64 `json:"cost"`
	RemainingCredits int64 `json:"remaining_credits"`
}

type processResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Usage   models.Usage    `json:"usage"`
	Billing billingPayload  `json:"billing"`
}

// ProcessVoice handles POST /process-voice. It is mounted behind
// middleware.Authenticate; the raw token is still passed on to the pipeline.
func (h *VoiceHandler) ProcessVoice(c *gin.Context) {
	token, err := middleware.BearerToken(c.GetHeader(common.AuthorizationHeaderName))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnauthorized, gin.H{"message": middleware.AuthFailureMessage(err)})
		return
	}

	if h.maxUploadBytes > 0 {
		if c.Request.ContentLength > h.maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Audio file too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile(audioFormField)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Audio file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "No audio file provided"})
		return
	}

	ctx := c.Request.Context()

	f, err := fh.Open()
	if err != nil {
		h.processingError(c, err)
		return
	}
	res, err := h.store.Save(ctx, fh.Filename, fh.Size, f)
	f.Close()
	if err != nil {
		h.processingError(c, err)
		return
	}

	result, err := h.pipeline.Process(ctx, token, res)
	if err != nil {
		h.processingError(c, err)
		return
	}

	data := result.Transcript.Raw
	if len(data) == 0 {
		if data, err = json.Marshal(result.Transcript); err != nil {
			h.processingError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, processResponse{
		Success: true,
		Data:    data,
		Usage:   result.Transcript.Usage,
		Billing: billingPayload{Cost: result.Billing.Cost, RemainingCredits: result.Billing.RemainingCredits},
	})
}

func (h *VoiceHandler) processingError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		ae *common.AuthError
		fe *common.InsufficientFundsError
		de *common.DownstreamError
	)
	switch {
	case errors.As(err, &ae):
		c.JSON(http.StatusUnauthorized, gin.H{"message": middleware.AuthFailureMessage(err)})
	case errors.As(err, &fe):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "Payment Required",
			"message": "Insufficient credits",
			"details": gin.H{"cost": fe.Required, "balance": fe.Available},
		})
	case errors.Is(err, common.ErrInvalidDuration), errors.Is(err, common.ErrProbeFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Processing failed", "details": err.Error()})
	case errors.As(err, &de):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed", "details": de.Error()})
	default:
		h.logger.Error(c.Request.Context(), "processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed", "details": "Internal Error"})
	}
}
