// Package catalog loads the immutable product dataset and answers the
// read-only queries the storefront needs: category filtering, featured
// slicing, id lookup and testimonial aggregation.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/shopease/storefront/internal/domain"
)

//go:embed data/products.json
var defaultDataset []byte

// ErrProductNotFound indicates the requested product id is not in the dataset.
var ErrProductNotFound = errors.New("catalog: product not found")

// DefaultRating is the display rating used when a product carries none.
const DefaultRating = 4.0

var categoryDisplayNames = map[string]string{
	"makeup":    "Makeup",
	"haircare":  "Haircare",
	"fragrance": "Fragrance",
	"skincare":  "Skincare",
}

// Index is the loaded catalog. It never mutates the dataset and hands out
// defensive copies of everything it returns.
type Index struct {
	products []domain.Product
	byID     map[domain.ProductID]int
	sanitize *bluemonday.Policy
}

type datasetDocument struct {
	Products []domain.Product `json:"products"`
}

// Load parses a catalog dataset document. Testimonial author and text fields
// are user-generated content and are stripped of any embedded markup.
func Load(data []byte) (*Index, error) {
	var doc datasetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse dataset: %w", err)
	}

	index := &Index{
		products: make([]domain.Product, 0, len(doc.Products)),
		byID:     make(map[domain.ProductID]int, len(doc.Products)),
		sanitize: bluemonday.StrictPolicy(),
	}

	for _, product := range doc.Products {
		product.ID = domain.NormalizeProductID(product.ID.String())
		if product.ID == "" {
			return nil, fmt.Errorf("catalog: product %q has no id", product.Title)
		}
		if _, dup := index.byID[product.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %s", product.ID)
		}
		product.Title = strings.TrimSpace(product.Title)
		product.Category = strings.TrimSpace(product.Category)
		for i, quote := range product.Testimonials {
			product.Testimonials[i].Author = index.sanitize.Sanitize(strings.TrimSpace(quote.Author))
			product.Testimonials[i].Text = index.sanitize.Sanitize(strings.TrimSpace(quote.Text))
		}
		index.byID[product.ID] = len(index.products)
		index.products = append(index.products, product)
	}

	return index, nil
}

// LoadDefault loads the dataset embedded in the binary.
func LoadDefault() (*Index, error) {
	return Load(defaultDataset)
}

// LoadFile loads a dataset from disk, for deployments overriding the embedded
// catalog.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read dataset: %w", err)
	}
	return Load(data)
}

// Len reports the number of products in the dataset.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.products)
}

// Products returns every product in dataset order.
func (ix *Index) Products() []domain.Product {
	if ix == nil {
		return nil
	}
	return cloneProducts(ix.products)
}

// ByCategory filters products by case-insensitive exact category match,
// preserving dataset order. Unknown categories yield an empty result.
func (ix *Index) ByCategory(category string) []domain.Product {
	if ix == nil {
		return nil
	}
	target := strings.TrimSpace(category)
	matches := make([]domain.Product, 0)
	for _, product := range ix.products {
		if strings.EqualFold(product.Category, target) {
			matches = append(matches, cloneProduct(product))
		}
	}
	return matches
}

// Featured returns the first n products in dataset order.
func (ix *Index) Featured(n int) []domain.Product {
	if ix == nil || n <= 0 {
		return []domain.Product{}
	}
	if n > len(ix.products) {
		n = len(ix.products)
	}
	return cloneProducts(ix.products[:n])
}

// FindByID looks up a product by canonical identifier.
func (ix *Index) FindByID(id domain.ProductID) (domain.Product, error) {
	if ix == nil {
		return domain.Product{}, ErrProductNotFound
	}
	idx, ok := ix.byID[domain.NormalizeProductID(id.String())]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return cloneProduct(ix.products[idx]), nil
}

// TestimonialsFor flattens the embedded testimonials of the given products
// into one sequence tagged with the source product. Order is product order,
// then testimonial order within each product; duplicates are kept.
func (ix *Index) TestimonialsFor(products []domain.Product) []domain.ProductTestimonial {
	out := make([]domain.ProductTestimonial, 0)
	for _, product := range products {
		for _, quote := range product.Testimonials {
			out = append(out, domain.ProductTestimonial{
				Testimonial:  quote,
				ProductID:    product.ID,
				ProductTitle: product.Title,
				Category:     product.Category,
			})
		}
	}
	return out
}

// Testimonials aggregates every testimonial in the dataset.
func (ix *Index) Testimonials() []domain.ProductTestimonial {
	if ix == nil {
		return nil
	}
	return ix.TestimonialsFor(ix.products)
}

// CategoryDisplayName maps a category slug to its display name, falling back
// to the raw slug for categories without one.
func CategoryDisplayName(slug string) string {
	key := strings.ToLower(strings.TrimSpace(slug))
	if name, ok := categoryDisplayNames[key]; ok {
		return name
	}
	return slug
}

func cloneProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, product := range products {
		out = append(out, cloneProduct(product))
	}
	return out
}

func cloneProduct(product domain.Product) domain.Product {
	dup := product
	if len(product.Testimonials) > 0 {
		dup.Testimonials = make([]domain.Testimonial, len(product.Testimonials))
		copy(dup.Testimonials, product.Testimonials)
	}
	return dup
}
