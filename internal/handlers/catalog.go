package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopease/storefront/internal/catalog"
	"github.com/shopease/storefront/internal/domain"
	"github.com/shopease/storefront/internal/platform/httpx"
)

// CatalogHandlers serves the read-only product, category, and testimonial
// endpoints backed by the static catalog index.
type CatalogHandlers struct {
	index         *catalog.Index
	featuredCount int
}

// NewCatalogHandlers constructs the catalog endpoint handlers.
func NewCatalogHandlers(index *catalog.Index, featuredCount int) *CatalogHandlers {
	if featuredCount <= 0 {
		featuredCount = 4
	}
	return &CatalogHandlers{
		index:         index,
		featuredCount: featuredCount,
	}
}

// Routes wires the catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Get("/featured", h.featuredProducts)
		pr.Get("/{productID}", h.getProduct)
	})
	r.Get("/categories/{category}/products", h.categoryProducts)
	r.Get("/testimonials", h.listTestimonials)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products := h.index.Products()
	writeJSONResponse(w, http.StatusOK, productListPayload{
		Products: buildProductPayloads(products),
		Count:    len(products),
	})
}

func (h *CatalogHandlers) featuredProducts(w http.ResponseWriter, r *http.Request) {
	products := h.index.Featured(h.featuredCount)
	writeJSONResponse(w, http.StatusOK, productListPayload{
		Products: buildProductPayloads(products),
		Count:    len(products),
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := domain.NormalizeProductID(routeParam(r, "productID"))

	product, err := h.index.FindByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError("product_not_found", fmt.Sprintf("no product with id %s", id), http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load product", http.StatusInternalServerError))
		return
	}

	payload := buildProductPayload(product)
	payload.Testimonials = product.Testimonials
	writeJSONResponse(w, http.StatusOK, productDetailPayload{Product: payload})
}

func (h *CatalogHandlers) categoryProducts(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(routeParam(r, "category")))
	products := h.index.ByCategory(slug)

	writeJSONResponse(w, http.StatusOK, categoryPayload{
		Category:     slug,
		DisplayName:  catalog.CategoryDisplayName(slug),
		Products:     buildProductPayloads(products),
		Count:        len(products),
		Testimonials: h.index.TestimonialsFor(products),
	})
}

func (h *CatalogHandlers) listTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials := h.index.Testimonials()
	writeJSONResponse(w, http.StatusOK, testimonialListPayload{
		Testimonials: testimonials,
		Count:        len(testimonials),
	})
}

func routeParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(value); err == nil {
		value = decoded
	}
	return value
}

func buildProductPayloads(products []domain.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, product := range products {
		out = append(out, buildProductPayload(product))
	}
	return out
}

func buildProductPayload(product domain.Product) productPayload {
	rating := product.Rating
	if rating <= 0 {
		rating = catalog.DefaultRating
	}
	payload := productPayload{
		ID:             product.ID,
		Title:          product.Title,
		Category:       product.Category,
		Price:          product.Price,
		EffectivePrice: product.EffectivePrice(),
		Rating:         rating,
		Image:          product.Image,
	}
	if product.OfferPrice > 0 && product.OfferPrice < product.Price {
		payload.OfferPrice = product.OfferPrice
	}
	return payload
}

type productPayload struct {
	ID             domain.ProductID     `json:"id"`
	Title          string               `json:"title"`
	Category       string               `json:"category"`
	Price          float64              `json:"price"`
	OfferPrice     float64              `json:"offerPrice,omitempty"`
	EffectivePrice float64              `json:"effectivePrice"`
	Rating         float64              `json:"rating"`
	Image          string               `json:"image"`
	Testimonials   []domain.Testimonial `json:"testimonials,omitempty"`
}

type productListPayload struct {
	Products []productPayload `json:"products"`
	Count    int              `json:"count"`
}

type productDetailPayload struct {
	Product productPayload `json:"product"`
}

type categoryPayload struct {
	Category     string                      `json:"category"`
	DisplayName  string                      `json:"displayName"`
	Products     []productPayload            `json:"products"`
	Count        int                         `json:"count"`
	Testimonials []domain.ProductTestimonial `json:"testimonials"`
}

type testimonialListPayload struct {
	Testimonials []domain.ProductTestimonial `json:"testimonials"`
	Count        int                         `json:"count"`
}
