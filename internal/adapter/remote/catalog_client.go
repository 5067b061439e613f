package remote

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/rocket-cart/internal/core/domain"
)

// CatalogClient fetches product metadata.
type CatalogClient struct {
	api *apiClient
}

func NewCatalogClient(opts Options) *CatalogClient {
	return &CatalogClient{api: newAPIClient("catalog", opts)}
}

type productPayload struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	ImageURL string          `json:"imageUrl"`
}

// Product calls GET /products/{id}.
func (c *CatalogClient) Product(ctx context.Context, productID int64) (domain.Product, error) {
	var payload productPayload
	if err := c.api.getJSON(ctx, fmt.Sprintf("/products/%d", productID), &payload); err != nil {
		return domain.Product{}, err
	}
	if payload.ID != productID {
		return domain.Product{}, fmt.Errorf("%w: asked for %d, got %d", ErrMalformedResponse, productID, payload.ID)
	}

	image := payload.ImageURL
	if image == "" {
		image = payload.Image
	}
	return domain.Product{
		ID:       payload.ID,
		Title:    payload.Title,
		Price:    payload.Price,
		ImageURL: image,
	}, nil
}
