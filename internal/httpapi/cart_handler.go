package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openshop/checkout/internal/domain"
	"github.com/openshop/checkout/internal/gateway"
	"github.com/openshop/checkout/internal/session"
)

type CartHandler struct {
	sessions *session.Manager
	shops    gateway.ShopDirectory
}

func NewCartHandler(sessions *session.Manager, shops gateway.ShopDirectory) *CartHandler {
	return &CartHandler{sessions: sessions, shops: shops}
}

type addItemRequestDTO struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageRef  string `json:"image_ref"`
	ShopID    string `json:"shop_id"`
}

type setQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type shopSelectionRequestDTO struct {
	Selected bool `json:"selected"`
}

type cartResponseDTO struct {
	Items  []domain.CartLineItem `json:"items"`
	Groups []domain.ShopGroup    `json:"groups"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponseDTO{
		Items:  core.Cart.Lines(),
		Groups: h.resolveShopNames(r.Context(), core.Cart.GroupedByShop()),
	})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req addItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == 0 || req.Quantity <= 0 || req.ShopID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request",
			"product_id, positive quantity and shop_id are required")
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	line := core.Cart.AddItem(req.ProductID, req.Quantity, domain.ProductMeta{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		ImageRef:  req.ImageRef,
		ShopID:    req.ShopID,
	})

	h.sessions.PersistCart(r.Context(), core)
	respondJSON(w, http.StatusCreated, line)
}

// PUT /api/v1/cart/items/{line_id}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req setQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	core.Cart.SetQuantity(chi.URLParam(r, "line_id"), req.Quantity)
	h.sessions.PersistCart(r.Context(), core)
	respondJSON(w, http.StatusOK, cartResponseDTO{
		Items:  core.Cart.Lines(),
		Groups: h.resolveShopNames(r.Context(), core.Cart.GroupedByShop()),
	})
}

// DELETE /api/v1/cart/items/{line_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	core.Cart.RemoveItem(chi.URLParam(r, "line_id"))
	h.sessions.PersistCart(r.Context(), core)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/cart/items/{line_id}/toggle
func (h *CartHandler) ToggleSelected(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	core.Cart.ToggleSelected(chi.URLParam(r, "line_id"))
	h.sessions.PersistCart(r.Context(), core)
	respondJSON(w, http.StatusOK, cartResponseDTO{
		Items:  core.Cart.Lines(),
		Groups: h.resolveShopNames(r.Context(), core.Cart.GroupedByShop()),
	})
}

// PUT /api/v1/cart/shops/{shop_id}/selection
func (h *CartHandler) SetShopSelection(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req shopSelectionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	core.Cart.SetShopSelection(chi.URLParam(r, "shop_id"), req.Selected)
	h.sessions.PersistCart(r.Context(), core)
	respondJSON(w, http.StatusOK, cartResponseDTO{
		Items:  core.Cart.Lines(),
		Groups: h.resolveShopNames(r.Context(), core.Cart.GroupedByShop()),
	})
}

// GET /api/v1/cart/quote?promo=CODE
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, core.Checkout.Quote(r.URL.Query().Get("promo")))
}

// resolveShopNames decorates groups with display names, best-effort. A
// directory failure leaves the name blank; grouping never depends on it.
func (h *CartHandler) resolveShopNames(ctx context.Context, groups []domain.ShopGroup) []domain.ShopGroup {
	if h.shops == nil {
		return groups
	}
	for i := range groups {
		name, err := h.shops.NameOf(ctx, groups[i].ShopID)
		if err != nil {
			log.Printf("shop name lookup failed for shop %s: %v", groups[i].ShopID, err)
			continue
		}
		groups[i].ShopName = name
	}
	return groups
}
