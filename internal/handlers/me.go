package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopease/storefront/internal/platform/auth"
)

// MeHandlers exposes the session snapshot endpoint.
type MeHandlers struct{}

// NewMeHandlers constructs the session endpoint handlers.
func NewMeHandlers() *MeHandlers {
	return &MeHandlers{}
}

// Routes wires the /me endpoint onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/me", h.getMe)
}

func (h *MeHandlers) getMe(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	payload := mePayload{Authenticated: session.Authenticated}
	if session.User != nil {
		payload.User = &meUserPayload{DisplayName: session.User.DisplayName}
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type mePayload struct {
	Authenticated bool           `json:"authenticated"`
	User          *meUserPayload `json:"user,omitempty"`
}

type meUserPayload struct {
	DisplayName string `json:"displayName"`
}
