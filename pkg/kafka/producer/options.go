package producer

import (
	"time"

	"github.com/andreyxaxa/payout-controller/pkg/logger"
)

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

// BatchTimeout bounds how long the writer holds a message waiting for a batch.
func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}

func Logger(l logger.Interface) Option {
	return func(p *Producer) {
		p.logger = l
	}
}
