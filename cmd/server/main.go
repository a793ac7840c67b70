package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-transactions-server/internal/config"
	"payment-transactions-server/internal/db"
	transport "payment-transactions-server/internal/http"
	"payment-transactions-server/internal/services"
	"payment-transactions-server/internal/store"
	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	txStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open transaction store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	processor := services.NewPaymentProcessor(cfg.SuccessRate)
	txService := services.NewTransactionService(txStore, processor)

	router := transport.NewRouter(transport.Dependencies{
		Config:    cfg,
		TxService: txService,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.RequestTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.Env, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrors:
		logger.Error("http server stopped unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("http server stopped")
}

// openStore selects the persistence backend at startup. Both variants expose
// the same TransactionStore contract.
func openStore(ctx context.Context, cfg *config.Config) (store.TransactionStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		conn, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		coll := conn.Client.Database(cfg.MongoDatabase).Collection("transactions")
		mongoStore := store.NewMongoStore(coll, cfg.RequestTimeout)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			conn.Close(ctx)
			return nil, nil, err
		}
		return mongoStore, func() { conn.Close(context.Background()) }, nil
	default:
		conn, err := db.ConnectPostgres(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx, conn.Pool, cfg.RequestTimeout); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store.NewPostgresStore(conn.Pool, cfg.RequestTimeout), conn.Close, nil
	}
}

func newLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env != "prod" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
