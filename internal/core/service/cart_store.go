package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/rocket-cart/internal/core/domain"
	"github.com/rl1809/rocket-cart/internal/port"
)

const (
	DefaultSnapshotKey  = "@RocketShoes:cart"
	DefaultWriteTimeout = 5 * time.Second
)

type Config struct {
	SnapshotKey  string
	// WriteTimeout bounds a snapshot write. The caller's deadline does not apply to it.
	WriteTimeout time.Duration
	Logger       logrus.FieldLogger
}

// CartStore is the only writer of the cart. Operations on the same product
// run one at a time; the in-memory cart and the persisted snapshot are
// replaced together under commitMu.
type CartStore struct {
	stock    port.StockService
	catalog  port.ProductCatalog
	store    port.SnapshotStore
	notifier port.Notifier
	log      logrus.FieldLogger
	key      string

	writeTimeout time.Duration

	locks *productLocks

	commitMu    sync.Mutex
	cart        atomic.Pointer[domain.Cart]
	subscribers map[uint64]func(domain.Cart)
	nextSub     uint64
}

func NewCartStore(
	ctx context.Context,
	cfg Config,
	stock port.StockService,
	catalog port.ProductCatalog,
	store port.SnapshotStore,
	notifier port.Notifier,
) *CartStore {
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = DefaultSnapshotKey
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	s := &CartStore{
		stock:        stock,
		catalog:      catalog,
		store:        store,
		notifier:     notifier,
		log:          cfg.Logger.WithField("component", "cart_store"),
		key:          cfg.SnapshotKey,
		writeTimeout: cfg.WriteTimeout,
		locks:        newProductLocks(),
		subscribers:  make(map[uint64]func(domain.Cart)),
	}

	initial := s.load(ctx)
	s.cart.Store(&initial)
	return s
}

func (s *CartStore) load(ctx context.Context) domain.Cart {
	raw, ok, err := s.store.Read(ctx, s.key)
	if err != nil {
		s.log.WithError(err).Warn("read cart snapshot failed, starting with empty cart")
		return domain.Cart{}
	}
	if !ok {
		return domain.Cart{}
	}

	c, err := domain.DecodeSnapshot(raw)
	if err != nil {
		s.log.WithError(err).Warn("discarding unreadable cart snapshot")
		return domain.Cart{}
	}

	s.log.WithField("items", len(c)).Info("cart restored from snapshot")
	return c
}

// Cart returns the current snapshot. It never blocks.
func (s *CartStore) Cart() domain.Cart {
	return s.cart.Load().Clone()
}

// Subscribe registers fn to receive the cart after every accepted mutation.
// fn runs synchronously in commit order and must not call back into the store's
// mutating methods.
func (s *CartStore) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	s.commitMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.commitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.commitMu.Lock()
			delete(s.subscribers, id)
			s.commitMu.Unlock()
		})
	}
}

// AddOrIncrement adds one unit of productID, fetching catalog metadata when
// the product is not in the cart yet.
func (s *CartStore) AddOrIncrement(ctx context.Context, productID int64) error {
	log := s.opLogger("add", productID)

	unlock, err := s.locks.lock(ctx, productID)
	if err != nil {
		return s.reject(log, MsgAddFailed, err)
	}
	defer unlock()

	var product domain.Product
	target := 1
	if existing, ok := s.cart.Load().Find(productID); ok {
		target = existing.Amount + 1
	} else {
		product, err = s.catalog.Product(ctx, productID)
		if err != nil {
			return s.reject(log, MsgAddFailed, fmt.Errorf("%w: %w", ErrProductNotFound, err))
		}
		product.ID = productID
		product.Amount = 1
	}

	stock, err := s.checkStock(ctx, productID, target)
	if err != nil {
		return s.reject(log, Message(err, MsgAddFailed), err)
	}

	err = s.commit(ctx, func(c domain.Cart) (domain.Cart, error) {
		existing, ok := c.Find(productID)
		if !ok {
			return c.WithProduct(product), nil
		}
		next := existing.Amount + 1
		if !stock.Allows(next) {
			return nil, fmt.Errorf("%w: requested %d, available %d", ErrOutOfStock, next, stock.Amount)
		}
		return c.WithAmount(productID, next), nil
	})
	if err != nil {
		return s.reject(log, Message(err, MsgAddFailed), err)
	}

	log.WithField("amount", target).Info("product added")
	s.notifier.Info(MsgAdded)
	return nil
}

func (s *CartStore) Remove(ctx context.Context, productID int64) error {
	log := s.opLogger("remove", productID)

	unlock, err := s.locks.lock(ctx, productID)
	if err != nil {
		return s.reject(log, MsgRemoveFailed, err)
	}
	defer unlock()

	err = s.commit(ctx, func(c domain.Cart) (domain.Cart, error) {
		if c.Index(productID) < 0 {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotInCart, productID)
		}
		return c.Without(productID), nil
	})
	if err != nil {
		return s.reject(log, MsgRemoveFailed, err)
	}

	log.Info("product removed")
	s.notifier.Info(MsgRemoved)
	return nil
}

// SetAmount replaces the amount held for a product already in the cart.
// Non-positive amounts are rejected before anything else is checked.
func (s *CartStore) SetAmount(ctx context.Context, productID int64, amount int) error {
	log := s.opLogger("set_amount", productID).WithField("amount", amount)

	if amount <= 0 {
		return s.reject(log, MsgInvalidAmount, fmt.Errorf("%w: %d", ErrInvalidAmount, amount))
	}

	unlock, err := s.locks.lock(ctx, productID)
	if err != nil {
		return s.reject(log, MsgUpdateFailed, err)
	}
	defer unlock()

	if s.cart.Load().Index(productID) < 0 {
		return s.reject(log, MsgUpdateFailed, fmt.Errorf("%w: product %d", ErrProductNotInCart, productID))
	}

	if _, err := s.checkStock(ctx, productID, amount); err != nil {
		return s.reject(log, Message(err, MsgUpdateFailed), err)
	}

	err = s.commit(ctx, func(c domain.Cart) (domain.Cart, error) {
		if c.Index(productID) < 0 {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotInCart, productID)
		}
		return c.WithAmount(productID, amount), nil
	})
	if err != nil {
		return s.reject(log, MsgUpdateFailed, err)
	}

	log.Info("product amount updated")
	s.notifier.Info(MsgUpdated)
	return nil
}

func (s *CartStore) checkStock(ctx context.Context, productID int64, amount int) (domain.Stock, error) {
	stock, err := s.stock.Stock(ctx, productID)
	if err != nil {
		return domain.Stock{}, fmt.Errorf("%w: %w", ErrStockCheckFailed, err)
	}
	if !stock.Allows(amount) {
		return stock, fmt.Errorf("%w: requested %d, available %d", ErrOutOfStock, amount, stock.Amount)
	}
	return stock, nil
}

// commit applies mutate to the latest cart, persists the result and only then
// swaps it in and publishes it.
func (s *CartStore) commit(ctx context.Context, mutate func(domain.Cart) (domain.Cart, error)) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	next, err := mutate(*s.cart.Load())
	if err != nil {
		return err
	}

	raw, err := domain.EncodeSnapshot(next)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	if err := s.write(ctx, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	s.cart.Store(&next)
	for _, fn := range s.subscribers {
		fn(next.Clone())
	}
	return nil
}

// write persists raw under its own deadline. If the store reports an error the
// key is read back, and a stored value equal to raw counts as written.
func (s *CartStore) write(ctx context.Context, raw string) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	err := s.store.Write(wctx, s.key, raw)
	if err == nil {
		return nil
	}

	rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer rcancel()
	if stored, ok, rerr := s.store.Read(rctx, s.key); rerr == nil && ok && stored == raw {
		s.log.WithError(err).Warn("snapshot write reported an error but was applied")
		return nil
	}
	return err
}

func (s *CartStore) reject(log logrus.FieldLogger, message string, err error) error {
	log.WithError(err).Warn("cart operation rejected")
	s.notifier.Error(message)
	return err
}

func (s *CartStore) opLogger(op string, productID int64) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"op":         op,
		"op_id":      uuid.NewString(),
		"product_id": productID,
	})
}

// Message is the notifier text for a rejection: stock and amount problems get
// their own message, everything else falls back to the operation's message.
func Message(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrOutOfStock):
		return MsgOutOfStock
	case errors.Is(err, ErrInvalidAmount):
		return MsgInvalidAmount
	default:
		return fallback
	}
}
