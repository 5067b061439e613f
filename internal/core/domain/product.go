package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Amount   int             `json:"amount"`
}

// MarshalJSON writes price as a JSON number.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(p), json.Number(p.Price.String())})
}

// Subtotal is price times amount.
func (p Product) Subtotal() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Amount)))
}

// Stock is the quantity reported by the stock service at query time. Never stored.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// Allows reports whether amount can be held in a cart against this stock.
func (s Stock) Allows(amount int) bool {
	return s.Amount >= 1 && amount >= 1 && amount <= s.Amount
}
