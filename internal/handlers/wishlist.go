package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopease/storefront/internal/domain"
	"github.com/shopease/storefront/internal/platform/httpx"
	"github.com/shopease/storefront/internal/services"
)

// WishlistHandlers exposes the wishlist endpoints backed by the write-through
// wishlist store.
type WishlistHandlers struct {
	wishlist *services.WishlistService
}

// NewWishlistHandlers constructs the wishlist endpoint handlers.
func NewWishlistHandlers(wishlist *services.WishlistService) *WishlistHandlers {
	return &WishlistHandlers{wishlist: wishlist}
}

// Routes wires the /wishlist endpoints onto the provided router.
func (h *WishlistHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/wishlist", func(wr chi.Router) {
		wr.Get("/", h.getWishlist)
		wr.Post("/{productID}", h.toggle)
	})
}

func (h *WishlistHandlers) getWishlist(w http.ResponseWriter, r *http.Request) {
	items := h.wishlist.Items()
	writeJSONResponse(w, http.StatusOK, wishlistPayload{
		Items: items,
		Count: len(items),
	})
}

func (h *WishlistHandlers) toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := domain.NormalizeProductID(routeParam(r, "productID"))
	if id == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id must not be empty", http.StatusBadRequest))
		return
	}

	wished := h.wishlist.Toggle(id)
	writeJSONResponse(w, http.StatusOK, wishlistTogglePayload{
		ProductID: id,
		Wished:    wished,
		Count:     h.wishlist.Count(),
	})
}

type wishlistPayload struct {
	Items []domain.ProductID `json:"items"`
	Count int                `json:"count"`
}

type wishlistTogglePayload struct {
	ProductID domain.ProductID `json:"productId"`
	Wished    bool             `json:"wished"`
	Count     int              `json:"count"`
}
