package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const UnknownRecipient = "unknown"

// PayoutRequest is built fresh for every attempt, retries included.
type PayoutRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Recipient string          `json:"recipient"`
	BatchID   string          `json:"batch_id"`
	ItemID    string          `json:"item_id"`
}

type PayoutConfirmation struct {
	BatchID       string `json:"batch_id"`
	SenderBatchID string `json:"sender_batch_id"`
	ItemID        string `json:"item_id"`
	Status        string `json:"status"`
}

// AttemptState is owned by the retry controller for the life of one chain.
// Request carries amount and recipient only: the executor assigns new
// batch and item IDs on every attempt.
type AttemptState struct {
	Request    PayoutRequest
	RetryCount int
	StartedAt  time.Time
}

type PayoutOutcome struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	Detail    string          `json:"detail"` // transaction id on success, error text on failure
	CreatedAt time.Time       `json:"created_at"`
}

// ChainResult is what a finished attempt chain reports to the queue.
type ChainResult struct {
	State        ChainState
	Attempts     int
	Confirmation *PayoutConfirmation
	Err          error
}
