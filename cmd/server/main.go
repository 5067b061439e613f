package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/rl1809/rocket-cart/internal/adapter/handler"
	"github.com/rl1809/rocket-cart/internal/adapter/notify"
	"github.com/rl1809/rocket-cart/internal/adapter/remote"
	"github.com/rl1809/rocket-cart/internal/adapter/storage"
	"github.com/rl1809/rocket-cart/internal/config"
	"github.com/rl1809/rocket-cart/internal/core/domain"
	"github.com/rl1809/rocket-cart/internal/core/service"
	"github.com/rl1809/rocket-cart/internal/logger"
	"github.com/rl1809/rocket-cart/internal/port"
)

const healthInterval = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "rocket-cart", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backends, closeBackends, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open backends")
	}
	defer closeBackends()

	remoteOpts := remote.Options{BaseURL: cfg.APIBaseURL, Timeout: cfg.RemoteTimeout}
	catalog := remote.NewCatalogClient(remoteOpts)
	stock, err := selectStock(cfg, backends, remoteOpts)
	if err != nil {
		log.WithError(err).Fatal("failed to configure stock service")
	}

	notifier := notify.NewRecorder(100, notify.NewLogNotifier(log))
	cart := service.NewCartStore(ctx, service.Config{SnapshotKey: cfg.SnapshotKey, WriteTimeout: cfg.RemoteTimeout, Logger: log},
		stock, catalog, backends.snapshots, notifier)

	unsubscribe := cart.Subscribe(func(c domain.Cart) {
		log.WithFields(logrus.Fields{"items": len(c), "units": c.ItemCount(), "total": c.Total().String()}).
			Debug("cart snapshot published")
	})
	defer unsubscribe()

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	healthReporter := handler.NewHealthReporter(backends.snapshots, log)
	healthReporter.Register(grpcServer)
	go healthReporter.Run(ctx, healthInterval)

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}

	go func() {
		log.Infof("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server error")
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(cart, notifier, log, cfg.RemoteTimeout*2)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      httpHandler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RemoteTimeout*2 + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server forced to shutdown")
	}
	log.Info("HTTP server stopped")

	cancel()
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")
}

type backends struct {
	snapshots port.SnapshotStore
	redis     *storage.RedisAdapter
	mysql     *storage.MySQLAdapter
}

// openBackends connects only what SNAPSHOT_BACKEND and STOCK_BACKEND need.
func openBackends(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (backends, func(), error) {
	var b backends
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		log.Info("connections closed")
	}

	needs := func(name string) bool {
		return cfg.SnapshotBackend == name || cfg.StockBackend == name
	}

	if needs("redis") {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			closeAll()
			return b, nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { rdb.Close() })
		b.redis = storage.NewRedisAdapter(rdb)
		log.Info("connected to redis")
	}

	if needs("mysql") {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			closeAll()
			return b, nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			closeAll()
			return b, nil, fmt.Errorf("ping mysql: %w", err)
		}
		closers = append(closers, func() { db.Close() })

		if err := storage.Migrate(db); err != nil {
			closeAll()
			return b, nil, err
		}
		b.mysql = storage.NewMySQLAdapter(db)
		log.Info("connected to mysql")
	}

	switch cfg.SnapshotBackend {
	case "redis":
		b.snapshots = b.redis
	case "mysql":
		b.snapshots = b.mysql
	case "memory":
		b.snapshots = storage.NewMemoryAdapter()
		log.Warn("cart snapshots are kept in memory and will not survive a restart")
	default:
		closeAll()
		return b, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}

	return b, closeAll, nil
}

func selectStock(cfg config.Config, b backends, opts remote.Options) (port.StockService, error) {
	switch cfg.StockBackend {
	case "http":
		return remote.NewStockClient(opts), nil
	case "redis":
		return b.redis, nil
	case "mysql":
		return b.mysql, nil
	default:
		return nil, fmt.Errorf("unknown stock backend %q", cfg.StockBackend)
	}
}
