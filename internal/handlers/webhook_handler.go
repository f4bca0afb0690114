package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/services"
	"tickethub/internal/status"
)

// signatureHeader carries the provider's hex HMAC-SHA512 of the raw body.
const signatureHeader = "X-Signature"

type WebhookHandler struct {
	app        *pocketbase.PocketBase
	settlement *services.SettlementService
}

func NewWebhookHandler(app *pocketbase.PocketBase, settlement *services.SettlementService) *WebhookHandler {
	return &WebhookHandler{
		app:        app,
		settlement: settlement,
	}
}

// HandlePaymentWebhook receives one settlement notification. The body must be
// read raw: the signature covers the exact received bytes, so nothing may
// bind or re-serialize it before verification.
func (h *WebhookHandler) HandlePaymentWebhook(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("unreadable body", err)
	}

	signature := e.Request.Header.Get(signatureHeader)
	outcome, err := h.settlement.HandleNotification(e.Request.Context(), body, signature)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrInvalidSignature):
			return apis.NewUnauthorizedError("invalid signature", nil)
		case errors.Is(err, status.ErrMalformedNotification),
			errors.Is(err, status.ErrUnknownStatus),
			errors.Is(err, status.ErrNotActionable),
			errors.Is(err, status.ErrTransactionNotFound):
			return apis.NewBadRequestError("invalid notification", nil)
		case errors.Is(err, status.ErrInsufficientSeats):
			return apis.NewApiError(http.StatusConflict, "insufficient inventory", nil)
		default:
			slog.Error("webhook: settlement failed", "error", err)
			return apis.NewInternalServerError("settlement failed", nil)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"outcome": outcome,
	})
}
