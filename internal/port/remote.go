package port

import (
	"context"

	"github.com/rl1809/rocket-cart/internal/core/domain"
)

type StockService interface {
	// Stock returns the quantity currently available for productID
	Stock(ctx context.Context, productID int64) (domain.Stock, error)
}

type ProductCatalog interface {
	// Product returns catalog metadata for productID; Amount is left zero
	Product(ctx context.Context, productID int64) (domain.Product, error)
}
