package restapi

import (
	v1 "github.com/andreyxaxa/payout-controller/internal/controller/restapi/v1"
	"github.com/andreyxaxa/payout-controller/internal/usecase"
	"github.com/andreyxaxa/payout-controller/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// NewRouter mounts the ops endpoints.
func NewRouter(app *fiber.App, disb usecase.DisbursementUseCase, queue usecase.PayoutQueue, l logger.Interface) {
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewPayoutRoutes(apiV1Group, disb, queue, l)
	}
}
