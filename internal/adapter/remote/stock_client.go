package remote

import (
	"context"
	"fmt"

	"github.com/rl1809/rocket-cart/internal/core/domain"
)

type StockClient struct {
	api *apiClient
}

func NewStockClient(opts Options) *StockClient {
	return &StockClient{api: newAPIClient("stock", opts)}
}

// Stock calls GET /stock/{id}.
func (c *StockClient) Stock(ctx context.Context, productID int64) (domain.Stock, error) {
	var payload struct {
		ID     *int64 `json:"id"`
		Amount *int   `json:"amount"`
	}
	if err := c.api.getJSON(ctx, fmt.Sprintf("/stock/%d", productID), &payload); err != nil {
		return domain.Stock{}, err
	}

	if payload.Amount == nil || *payload.Amount < 0 {
		return domain.Stock{}, fmt.Errorf("%w: missing or negative amount", ErrMalformedResponse)
	}
	if payload.ID != nil && *payload.ID != productID {
		return domain.Stock{}, fmt.Errorf("%w: asked for %d, got %d", ErrMalformedResponse, productID, *payload.ID)
	}
	return domain.Stock{ID: productID, Amount: *payload.Amount}, nil
}
