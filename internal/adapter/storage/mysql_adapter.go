package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/rl1809/rocket-cart/internal/core/domain"
)

// MySQLAdapter stores the cart snapshot in cart_snapshots and reads stock
// from the inventory table.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Read(ctx context.Context, key string) (string, bool, error) {
	var payload string
	err := m.db.QueryRowContext(ctx, `
		SELECT payload FROM cart_snapshots WHERE snapshot_key = ?`, key,
	).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query snapshot: %w", err)
	}
	return payload, true, nil
}

func (m *MySQLAdapter) Write(ctx context.Context, key, value string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_snapshots (snapshot_key, payload, updated_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLAdapter) Stock(ctx context.Context, productID int64) (domain.Stock, error) {
	var amount int
	err := m.db.QueryRowContext(ctx, `
		SELECT stock FROM inventory WHERE item_id = ?`, itemID(productID),
	).Scan(&amount)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Stock{}, fmt.Errorf("product %d: %w", productID, ErrStockNotFound)
	}
	if err != nil {
		return domain.Stock{}, fmt.Errorf("query inventory: %w", err)
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

func (m *MySQLAdapter) SetStock(ctx context.Context, productID int64, amount int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (item_id, stock, version) VALUES (?, ?, 0)
		ON DUPLICATE KEY UPDATE stock = VALUES(stock), version = version + 1, updated_at = NOW()`,
		itemID(productID), amount,
	)
	if err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}
	return nil
}

func itemID(productID int64) string {
	return strconv.FormatInt(productID, 10)
}
