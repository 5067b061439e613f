package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*MySQLAdapter, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewMySQLAdapter(db), mock
}

func TestMySQLRead_Found(t *testing.T) {
	adapter, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM cart_snapshots WHERE snapshot_key = ?")).
		WithArgs("@RocketShoes:cart").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`[{"id":5,"amount":1}]`))

	value, ok, err := adapter.Read(context.Background(), "@RocketShoes:cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":5,"amount":1}]`, value)
}

func TestMySQLRead_Missing(t *testing.T) {
	adapter, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM cart_snapshots")).
		WithArgs("@RocketShoes:cart").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, ok, err := adapter.Read(context.Background(), "@RocketShoes:cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMySQLRead_Error(t *testing.T) {
	adapter, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM cart_snapshots")).
		WillReturnError(errors.New("connection reset"))

	_, _, err := adapter.Read(context.Background(), "@RocketShoes:cart")
	require.ErrorContains(t, err, "query snapshot")
}

func TestMySQLWrite_Upserts(t *testing.T) {
	adapter, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_snapshots (snapshot_key, payload, updated_at)")).
		WithArgs("@RocketShoes:cart", "[]").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, adapter.Write(context.Background(), "@RocketShoes:cart", "[]"))
}

func TestMySQLWrite_Error(t *testing.T) {
	adapter, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_snapshots")).
		WillReturnError(errors.New("read-only"))

	require.ErrorContains(t, adapter.Write(context.Background(), "k", "[]"), "upsert snapshot")
}

func TestMySQLStock(t *testing.T) {
	adapter, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM inventory WHERE item_id = ?")).
		WithArgs("5").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM inventory WHERE item_id = ?")).
		WithArgs("6").
		WillReturnError(sql.ErrNoRows)

	stock, err := adapter.Stock(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, stock.Amount)
	assert.Equal(t, int64(5), stock.ID)

	_, err = adapter.Stock(context.Background(), 6)
	assert.ErrorIs(t, err, ErrStockNotFound)
}

func TestMySQLSetStock(t *testing.T) {
	adapter, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory (item_id, stock, version)")).
		WithArgs("5", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.SetStock(context.Background(), 5, 10))
}

// Runs against a real database when MYSQL_DSN points at one.
func TestMySQL_RoundTripLive(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	require.NoError(t, Migrate(db))

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	require.NoError(t, adapter.Write(ctx, "test:cart", `[{"id":1,"amount":2}]`))

	value, ok, err := adapter.Read(ctx, "test:cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1,"amount":2}]`, value)

	db.ExecContext(ctx, `DELETE FROM cart_snapshots WHERE snapshot_key = ?`, "test:cart")
}
