package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openshop/checkout/internal/checkout"
	"github.com/openshop/checkout/internal/domain"
	"github.com/openshop/checkout/internal/session"
)

type CheckoutHandler struct {
	sessions *session.Manager
}

func NewCheckoutHandler(sessions *session.Manager) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions}
}

type submitRequestDTO struct {
	PaymentMethod string `json:"payment_method"`
	PromoCode     string `json:"promo_code"`
}

type submitResponseDTO struct {
	Status      string            `json:"status"`
	OrderID     string            `json:"order_id,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req submitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	result, err := core.Checkout.Submit(r.Context(), checkout.SubmitRequest{
		PromoCode: req.PromoCode,
		Method:    domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrSubmitInProgress):
			respondError(w, http.StatusConflict, "submit_in_progress",
				"a checkout is already being processed")
		case errors.Is(err, checkout.ErrUnknownPaymentMethod):
			respondError(w, http.StatusBadRequest, "unknown_payment_method",
				"payment_method must be cash_on_delivery or prepaid_redirect")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
		}
		return
	}

	switch {
	case result.Signal == checkout.SignalRedirectLogin:
		respondJSON(w, http.StatusUnauthorized, submitResponseDTO{
			Status:   result.Status.String(),
			Redirect: "/login",
		})
	case result.Signal == checkout.SignalRedirectCart:
		respondJSON(w, http.StatusConflict, submitResponseDTO{
			Status:   result.Status.String(),
			Redirect: "/cart",
		})
	case len(result.FieldErrors) > 0:
		respondJSON(w, http.StatusUnprocessableEntity, submitResponseDTO{
			Status:      result.Status.String(),
			FieldErrors: result.FieldErrors,
		})
	case result.Status == domain.CheckoutStatusFailed:
		respondJSON(w, http.StatusBadGateway, submitResponseDTO{
			Status:  result.Status.String(),
			Message: result.ErrorMessage,
		})
	default:
		// The cart snapshot changed: the selected lines are gone.
		h.sessions.PersistCart(r.Context(), core)
		respondJSON(w, http.StatusCreated, submitResponseDTO{
			Status:   result.Status.String(),
			OrderID:  result.OrderID,
			Redirect: "/orders/" + result.OrderID,
		})
	}
}

// GET /api/v1/checkout/status
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": core.Checkout.Status().String()})
}
