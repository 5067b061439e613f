package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cart is an ordered sequence of products, unique by ID, every amount >= 1.
type Cart []Product

func (c Cart) Index(productID int64) int {
	for i, p := range c {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Find(productID int64) (Product, bool) {
	i := c.Index(productID)
	if i < 0 {
		return Product{}, false
	}
	return c[i], true
}

// Clone returns a copy that shares no backing array with c. A nil or empty
// cart clones to an empty non-nil cart so it serializes as [].
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// WithAmount returns a copy of c with productID's amount replaced.
func (c Cart) WithAmount(productID int64, amount int) Cart {
	out := c.Clone()
	if i := out.Index(productID); i >= 0 {
		out[i].Amount = amount
	}
	return out
}

// WithProduct returns a copy of c with p appended.
func (c Cart) WithProduct(p Product) Cart {
	out := make(Cart, len(c), len(c)+1)
	copy(out, c)
	return append(out, p)
}

// Without returns a copy of c with productID removed.
func (c Cart) Without(productID int64) Cart {
	out := make(Cart, 0, len(c))
	for _, p := range c {
		if p.ID != productID {
			out = append(out, p)
		}
	}
	return out
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c {
		total = total.Add(p.Subtotal())
	}
	return total
}

func (c Cart) ItemCount() int {
	n := 0
	for _, p := range c {
		n += p.Amount
	}
	return n
}

// Validate checks uniqueness by ID and positive amounts.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for _, p := range c {
		if p.Amount < 1 {
			return fmt.Errorf("product %d: amount %d below 1", p.ID, p.Amount)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("product %d: %w", p.ID, errDuplicateProduct)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

var errDuplicateProduct = errors.New("duplicate entry")
