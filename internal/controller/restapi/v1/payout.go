package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/payout-controller/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/payout-controller/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

// runDisbursement runs one disbursement cycle right now.
// 202 when a payout was queued, 200 when the balance was too low.
func (r *V1) runDisbursement(ctx *fiber.Ctx) error {
	decision, err := r.disb.Run(ctx.UserContext())
	if err != nil {
		if errors.Is(err, errs.ErrQueueClosed) {
			return errorResponse(ctx, http.StatusServiceUnavailable, "shutting down")
		}
		r.logger.Error(err, "restapi - v1 - runDisbursement")

		return errorResponse(ctx, http.StatusInternalServerError, "disbursement failed")
	}

	resp := response.Decision{
		Balance:   decision.Balance.StringFixed(2),
		Reserve:   decision.Reserve.StringFixed(2),
		Amount:    decision.Amount.StringFixed(2),
		Submitted: decision.Submitted,
	}

	status := http.StatusOK
	if decision.Submitted {
		status = http.StatusAccepted
	}

	return ctx.Status(status).JSON(resp)
}

func (r *V1) queueStats(ctx *fiber.Ctx) error {
	s := r.queue.Stats()

	return ctx.Status(http.StatusOK).JSON(response.QueueStats{
		Pending:   s.Pending,
		InFlight:  s.InFlight,
		Processed: s.Processed,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Aborted:   s.Aborted,
	})
}
