package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/pkg/types/errs"
	"github.com/plutov/paypal/v4"
)

const (
	ModeSandbox = "sandbox"
	ModeLive    = "live"

	_recipientTypeEmail = "EMAIL"
)

// NewClient builds a PayPal REST client for the given mode. The SDK fetches
// and refreshes the OAuth token on its own.
func NewClient(clientID, secret, mode string, timeout time.Duration) (*paypal.Client, error) {
	base := paypal.APIBaseSandBox
	if mode == ModeLive {
		base = paypal.APIBaseLive
	}

	client, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("paypal - NewClient - paypal.NewClient: %w", err)
	}

	client.Client = &http.Client{Timeout: timeout}

	return client, nil
}

// Gateway submits single-item payout batches to PayPal.
type Gateway struct {
	client *paypal.Client

	emailSubject string
	note         string
}

func NewGateway(client *paypal.Client, emailSubject, note string) *Gateway {
	return &Gateway{
		client:       client,
		emailSubject: emailSubject,
		note:         note,
	}
}

func (g *Gateway) CreatePayout(ctx context.Context, req entity.PayoutRequest) (entity.PayoutConfirmation, error) {
	resp, err := g.client.CreatePayout(ctx, paypal.Payout{
		SenderBatchHeader: &paypal.SenderBatchHeader{
			SenderBatchID: req.BatchID,
			EmailSubject:  g.emailSubject,
		},
		Items: []paypal.PayoutItem{{
			RecipientType: _recipientTypeEmail,
			Amount: &paypal.AmountPayout{
				// PayPal takes two decimal places; sub-cent remainders stay in the account
				Value:    req.Amount.Truncate(2).StringFixed(2),
				Currency: req.Currency,
			},
			Receiver:     req.Recipient,
			Note:         g.note,
			SenderItemID: req.ItemID,
		}},
	})
	if err != nil {
		// all failures are retried the same way; the marker only makes client errors easy to spot
		if rejected(err) {
			return entity.PayoutConfirmation{}, fmt.Errorf("Gateway - CreatePayout - g.client.CreatePayout: %w: %w", errs.ErrGatewayRejected, err)
		}

		return entity.PayoutConfirmation{}, fmt.Errorf("Gateway - CreatePayout - g.client.CreatePayout: %w", err)
	}

	if resp.BatchHeader == nil {
		return entity.PayoutConfirmation{ItemID: req.ItemID}, nil
	}

	conf := entity.PayoutConfirmation{
		BatchID: resp.BatchHeader.PayoutBatchID,
		ItemID:  req.ItemID,
		Status:  resp.BatchHeader.BatchStatus,
	}
	if resp.BatchHeader.SenderBatchHeader != nil {
		conf.SenderBatchID = resp.BatchHeader.SenderBatchHeader.SenderBatchID
	}

	return conf, nil
}

// rejected reports a 4xx reply other than 429.
func rejected(err error) bool {
	var apiErr *paypal.ErrorResponse
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return false
	}

	code := apiErr.Response.StatusCode

	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
