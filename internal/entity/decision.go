package entity

import "github.com/shopspring/decimal"

// Decision is the result of one disbursement cycle.
type Decision struct {
	Balance   decimal.Decimal `json:"balance"`
	Reserve   decimal.Decimal `json:"reserve"`
	Amount    decimal.Decimal `json:"amount"`
	Submitted bool            `json:"submitted"`
}

// QueueStats is a snapshot of the single-flight payout queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	InFlight  bool  `json:"in_flight"`
	Processed int64 `json:"processed"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Aborted   int64 `json:"aborted"`
}
