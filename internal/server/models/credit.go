package models

import (
	"encoding/json"
	"time"
)

// CreditTransaction is an append-only ledger row. Debits carry a negative
// Amount.
type CreditTransaction struct {
	ID          int64
	UserID      string
	Amount      int64
	Description string
	CreatedAt   time.Time
}

// ChargeResult describes a successful debit.
type ChargeResult struct {
	Cost             int64
	RemainingCredits int64
}

// Usage is the token accounting reported by the transcription engine.
type Usage struct {
	PromptTokens int64 `json:"prompt_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Transcript is the engine's answer for one recording. Raw keeps the whole
// payload so fields unknown to the gateway reach the caller unchanged.
type Transcript struct {
	RawTranscription string          `json:"raw_transcription"`
	StructuredReport json.RawMessage `json:"structured_report"`
	Usage            Usage           `json:"usage"`
	Raw              json.RawMessage `json:"-"`
}

// ProcessResult is what the request pipeline hands back on success.
type ProcessResult struct {
	Transcript Transcript
	Billing    ChargeResult
	Duration   float64
}
