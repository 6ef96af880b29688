package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openshop/checkout/internal/domain"
	"github.com/openshop/checkout/internal/session"
	"github.com/openshop/checkout/internal/shipping"
)

type ShippingHandler struct {
	sessions *session.Manager
}

func NewShippingHandler(sessions *session.Manager) *ShippingHandler {
	return &ShippingHandler{sessions: sessions}
}

type profileResponseDTO struct {
	Profile domain.ShippingProfile `json:"profile"`
	State   shipping.SyncState     `json:"state"`
}

// GET /api/v1/shipping-profile
func (h *ShippingHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	respondJSON(w, http.StatusOK, profileResponseDTO{
		Profile: core.Profiles.Profile(),
		State:   core.Profiles.State(),
	})
}

// PUT /api/v1/shipping-profile
//
// Every call is one "edit": it replaces the in-session profile and re-arms
// the debounce timer. The save itself happens in the background.
func (h *ShippingHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var profile domain.ShippingProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	core.Profiles.Update(profile)
	respondJSON(w, http.StatusAccepted, profileResponseDTO{
		Profile: core.Profiles.Profile(),
		State:   core.Profiles.State(),
	})
}

// POST /api/v1/shipping-profile/save
//
// The explicit save escape hatch. An incomplete profile is reported but is
// not an error the shopper has to recover from; editing continues.
func (h *ShippingHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	core, err := h.sessions.Get(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}

	if err := core.Profiles.SaveNow(r.Context()); err != nil {
		if errors.Is(err, shipping.ErrProfileIncomplete) {
			respondError(w, http.StatusUnprocessableEntity, "profile_incomplete",
				"fill in all required fields before saving")
			return
		}
		// Persistence failures are soft: surface a notice, keep editing.
		respondError(w, http.StatusAccepted, "save_failed",
			"could not save your address right now; we'll retry automatically")
		return
	}

	respondJSON(w, http.StatusOK, profileResponseDTO{
		Profile: core.Profiles.Profile(),
		State:   core.Profiles.State(),
	})
}
