package errs

import "errors"

var (
	ErrQueueClosed     = errors.New("payout queue closed")
	ErrEmptyBatchID    = errors.New("gateway confirmation has no batch id")
	ErrGatewayRejected = errors.New("gateway rejected payout")
)
