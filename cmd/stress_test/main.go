package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/rocket-cart/internal/adapter/notify"
	"github.com/rl1809/rocket-cart/internal/adapter/storage"
	"github.com/rl1809/rocket-cart/internal/core/domain"
	"github.com/rl1809/rocket-cart/internal/core/service"
	"github.com/rl1809/rocket-cart/internal/port"
)

const (
	redisAddr     = "localhost:6379"
	snapshotKey   = "stress:cart"
	productID     = int64(1)
	initialStock  = 20
	totalRequests = 50
	maxLatency    = 20 * time.Millisecond
)

// slowStock adds random latency so concurrent lookups overlap.
type slowStock struct {
	next port.StockService
}

func (s slowStock) Stock(ctx context.Context, id int64) (domain.Stock, error) {
	time.Sleep(time.Duration(rand.Int63n(int64(maxLatency))))
	return s.next.Stock(ctx, id)
}

type staticCatalog struct{}

func (staticCatalog) Product(_ context.Context, id int64) (domain.Product, error) {
	return domain.Product{ID: id, Title: "Stress Sneaker", Price: decimal.NewFromInt(199), ImageURL: "stress.jpg"}, nil
}

func main() {
	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Clear previous test data
	rdb.Del(ctx, snapshotKey)

	redisAdapter := storage.NewRedisAdapter(rdb)
	if err := redisAdapter.SetStock(ctx, productID, initialStock); err != nil {
		log.Fatalf("failed to set stock: %v", err)
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	notifier := notify.NewRecorder(totalRequests, nil)
	cart := service.NewCartStore(ctx, service.Config{SnapshotKey: snapshotKey, Logger: quiet},
		slowStock{next: redisAdapter}, staticCatalog{}, redisAdapter, notifier)

	var published atomic.Int32
	cart.Subscribe(func(domain.Cart) { published.Add(1) })

	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var g errgroup.Group
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		g.Go(func() error {
			if err := cart.AddOrIncrement(ctx, productID); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
			return nil
		})
	}

	g.Wait()
	elapsed := time.Since(start)

	var outOfStock int
	for _, m := range notifier.Messages() {
		if m.Level == notify.LevelError && m.Text == service.MsgOutOfStock {
			outOfStock++
		}
	}

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Out of stock:     %d\n", outOfStock)
	fmt.Printf("Published:        %d\n", published.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && fail == totalRequests-initialStock && outOfStock == int(fail) {
		fmt.Printf("PASS: exactly %d adds accepted, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	// Verify memory and the persisted snapshot agree
	inMemory, _ := cart.Cart().Find(productID)
	raw, err := rdb.Get(ctx, snapshotKey).Result()
	if err != nil {
		log.Fatalf("failed to read snapshot: %v", err)
	}
	persisted, err := domain.DecodeSnapshot(raw)
	if err != nil {
		log.Fatalf("failed to decode snapshot: %v", err)
	}
	onDisk, _ := persisted.Find(productID)

	fmt.Printf("Cart amount:      %d (snapshot %d)\n", inMemory.Amount, onDisk.Amount)
	if inMemory.Amount == initialStock && onDisk.Amount == initialStock {
		fmt.Println("PASS: no lost updates, snapshot in sync")
	} else {
		fmt.Printf("FAIL: expected amount %d in memory and snapshot\n", initialStock)
	}
}
