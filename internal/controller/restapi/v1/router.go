package v1

import (
	"github.com/andreyxaxa/payout-controller/internal/usecase"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewPayoutRoutes(apiV1Group fiber.Router, disb usecase.DisbursementUseCase, queue usecase.PayoutQueue, l logger.Interface) {
	r := &V1{disb: disb, queue: queue, logger: l}

	payouts := apiV1Group.Group("/payouts")
	{
		payouts.Post("/run", r.runDisbursement)
		payouts.Get("/queue", r.queueStats)
	}
}
