package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/internal/cache"
	"tickethub/internal/services"
	"tickethub/internal/services/gateway"
	"tickethub/internal/status"
)

type PurchaseHandler struct {
	app      *pocketbase.PocketBase
	purchase *services.PurchaseService
	store    services.Store
	sessions *cache.Cache
	gateway  *gateway.Gateway
}

func NewPurchaseHandler(app *pocketbase.PocketBase, purchase *services.PurchaseService, st services.Store, sessions *cache.Cache, gw *gateway.Gateway) *PurchaseHandler {
	return &PurchaseHandler{
		app:      app,
		purchase: purchase,
		store:    st,
		sessions: sessions,
		gateway:  gw,
	}
}

// InitiatePurchase starts a purchase for the authenticated buyer.
func (h *PurchaseHandler) InitiatePurchase(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID     string          `json:"event_id"`
		TierID      string          `json:"tier_id"`
		Quantity    int             `json:"quantity"`
		UnitAmount  decimal.Decimal `json:"unit_amount"`
		AffiliateID string          `json:"affiliate_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.purchase.Initiate(e.Request.Context(), services.PurchaseRequest{
		BuyerID:     e.Auth.Id,
		BuyerEmail:  e.Auth.Email(),
		EventID:     req.EventID,
		TierID:      req.TierID,
		Quantity:    req.Quantity,
		UnitAmount:  req.UnitAmount,
		AffiliateID: req.AffiliateID,
	})
	if err != nil {
		if validationError(err) {
			return apis.NewBadRequestError(err.Error(), nil)
		}
		if errors.Is(err, status.ErrInsufficientSeats) {
			return apis.NewApiError(http.StatusConflict, err.Error(), nil)
		}
		slog.Error("purchase: initiation failed", "buyer", e.Auth.Id, "error", err)
		return apis.NewInternalServerError("purchase failed", nil)
	}

	return e.JSON(http.StatusOK, result)
}

// GetPurchase polls the status of a purchase by reference. The redis session
// cache answers first; the transaction store is the fallback.
func (h *PurchaseHandler) GetPurchase(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reference := e.Request.PathValue("reference")
	ctx := e.Request.Context()

	if session, err := h.sessions.GetSession(ctx, reference); err == nil && session != nil {
		if session.BuyerID != e.Auth.Id {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"reference":    session.Reference,
			"status":       session.Status,
			"amount":       session.Amount,
			"checkout_url": session.CheckoutURL,
		})
	}

	t, err := h.store.FindTransactionByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, status.ErrTransactionNotFound) {
			return apis.NewNotFoundError("Purchase not found", nil)
		}
		return apis.NewInternalServerError("lookup failed", nil)
	}
	if t.BuyerID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"reference": t.Reference,
		"status":    t.Status,
		"amount":    t.ActualAmount,
		"quantity":  t.Quantity,
	})
}

// VerifyPayment queries the provider's own record for a reference, for
// manual reconciliation of transactions stuck in pending.
func (h *PurchaseHandler) VerifyPayment(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reference := e.Request.PathValue("reference")
	verified, err := h.gateway.VerifyTransaction(e.Request.Context(), reference)
	if err != nil {
		slog.Error("payment: gateway verify failed", "reference", reference, "error", err)
		return apis.NewInternalServerError("verification failed", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"reference": verified.Reference,
		"status":    verified.Status,
		"amount":    verified.Amount,
		"currency":  verified.Currency,
		"paid_at":   verified.PaidAt,
	})
}

func validationError(err error) bool {
	for _, target := range []error{
		status.ErrQuantityExceeded,
		status.ErrEventNotFound,
		status.ErrEventNotOnSale,
		status.ErrUnknownAffiliate,
		status.ErrTierNotFound,
		status.ErrTierMismatch,
		status.ErrStaleUnitAmount,
		status.ErrOwnershipCap,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
