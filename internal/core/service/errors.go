package service

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrStockCheckFailed = errors.New("stock check failed")
	ErrOutOfStock       = errors.New("out of stock")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrProductNotInCart = errors.New("product not in cart")
	ErrPersistFailed    = errors.New("persist cart snapshot failed")
)

// Notifier messages.
const (
	MsgOutOfStock    = "Requested quantity is out of stock"
	MsgInvalidAmount = "Requested quantity must be at least 1"
	MsgAddFailed     = "Error adding product"
	MsgRemoveFailed  = "Error removing product"
	MsgUpdateFailed  = "Error changing product quantity"

	MsgAdded   = "Product added to cart"
	MsgRemoved = "Product removed from cart"
	MsgUpdated = "Product quantity updated"
)
