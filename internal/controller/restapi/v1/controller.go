package v1

import (
	"github.com/andreyxaxa/payout-controller/internal/usecase"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
)

type V1 struct {
	disb   usecase.DisbursementUseCase
	queue  usecase.PayoutQueue
	logger logger.Interface
}
