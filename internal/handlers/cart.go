package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopease/storefront/internal/catalog"
	"github.com/shopease/storefront/internal/domain"
	"github.com/shopease/storefront/internal/platform/httpx"
	"github.com/shopease/storefront/internal/services"
)

const maxCartBodySize = 16 * 1024

// CartHandlers exposes the cart endpoints backed by the in-memory cart store.
type CartHandlers struct {
	cart  *services.CartService
	index *catalog.Index
}

// NewCartHandlers constructs handlers resolving products through the catalog
// index before mutating the cart.
func NewCartHandlers(cart *services.CartService, index *catalog.Index) *CartHandlers {
	return &CartHandlers{
		cart:  cart,
		index: index,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/cart", func(cr chi.Router) {
		cr.Get("/", h.getCart)
		cr.Post("/items", h.addItem)
		cr.Patch("/items/{productID}", h.updateItem)
		cr.Delete("/items/{productID}", h.removeItem)
		cr.Delete("/items", h.clearCart)
		cr.Post("/visibility", h.toggleVisibility)
		cr.Post("/checkout", h.checkout)
	})
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.buildCartPayload())
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	req, err := parseAddItemRequest(body)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	product, err := h.index.FindByID(req.productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError("product_not_found", fmt.Sprintf("no product with id %s", req.productID), http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load product", http.StatusInternalServerError))
		return
	}

	h.cart.AddToCart(product, req.quantity)
	writeJSONResponse(w, http.StatusOK, h.buildCartPayload())
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := domain.NormalizeProductID(routeParam(r, "productID"))

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	quantity, err := parseQuantityRequest(body)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	h.cart.UpdateQuantity(id, quantity)
	writeJSONResponse(w, http.StatusOK, h.buildCartPayload())
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	id := domain.NormalizeProductID(routeParam(r, "productID"))
	h.cart.RemoveFromCart(id)
	writeJSONResponse(w, http.StatusOK, h.buildCartPayload())
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.ClearCart()
	writeJSONResponse(w, http.StatusOK, h.buildCartPayload())
}

func (h *CartHandlers) toggleVisibility(w http.ResponseWriter, r *http.Request) {
	isOpen := h.cart.ToggleVisibility()
	writeJSONResponse(w, http.StatusOK, cartVisibilityPayload{IsOpen: isOpen})
}

func (h *CartHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.cart.Checkout()
	if err != nil {
		if errors.Is(err, services.ErrCartEmpty) {
			httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cannot check out an empty cart", http.StatusConflict))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "checkout failed", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, checkoutPayload{Total: total})
}

func (h *CartHandlers) buildCartPayload() cartStatePayload {
	items := h.cart.Items()
	payload := cartStatePayload{
		IsOpen: h.cart.IsOpen(),
		Items:  make([]cartItemPayload, 0, len(items)),
		Count:  len(items),
		Total:  h.cart.Total(),
	}
	for _, item := range items {
		payload.Items = append(payload.Items, cartItemPayload{
			ProductID: item.ProductID,
			Title:     item.Title,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		})
	}
	return payload
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", errEmptyBody.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

type cartStatePayload struct {
	IsOpen bool              `json:"isOpen"`
	Items  []cartItemPayload `json:"items"`
	Count  int               `json:"count"`
	Total  float64           `json:"total"`
}

type cartItemPayload struct {
	ProductID domain.ProductID `json:"productId"`
	Title     string           `json:"title"`
	Image     string           `json:"image"`
	UnitPrice float64          `json:"unitPrice"`
	Quantity  int              `json:"quantity"`
	Subtotal  float64          `json:"subtotal"`
}

type cartVisibilityPayload struct {
	IsOpen bool `json:"isOpen"`
}

type checkoutPayload struct {
	Total float64 `json:"total"`
}

type addItemRequest struct {
	productID domain.ProductID
	quantity  int
}

func parseAddItemRequest(body []byte) (addItemRequest, error) {
	var raw struct {
		ProductID domain.ProductID `json:"productId"`
		Quantity  json.RawMessage  `json:"quantity"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return addItemRequest{}, errors.New("invalid JSON payload")
	}
	if raw.ProductID == "" {
		return addItemRequest{}, errors.New("productId is required")
	}
	return addItemRequest{
		productID: raw.ProductID,
		quantity:  coerceQuantity(raw.Quantity),
	}, nil
}

func parseQuantityRequest(body []byte) (int, error) {
	var raw struct {
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, errors.New("invalid JSON payload")
	}
	return coerceQuantity(raw.Quantity), nil
}

// coerceQuantity mirrors the forgiving quantity handling of the UI inputs:
// numbers are truncated, numeric strings parsed, and anything else becomes 1.
func coerceQuantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if parsed, err := strconv.Atoi(s); err == nil {
			return parsed
		}
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return int(parsed)
		}
	}

	return 1
}
