package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/catalog"
	"github.com/dulcemimos/go-store-api/internal/checkout"
	"github.com/dulcemimos/go-store-api/internal/config"
	"github.com/dulcemimos/go-store-api/internal/httpx"
	kafkax "github.com/dulcemimos/go-store-api/internal/kafka"
	"github.com/dulcemimos/go-store-api/internal/mercadopago"
	"github.com/dulcemimos/go-store-api/internal/orders"
	"github.com/dulcemimos/go-store-api/internal/postgres"
	"github.com/dulcemimos/go-store-api/internal/redisx"
)

func newLogger(env string) *zap.Logger {
	if env == "production" {
		l, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		return l
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return l
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.Env)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (order events, best effort)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prod.Start(ctx)

	// Payment gateway client, injected — never a package-level singleton.
	gateway := mercadopago.New(cfg.MPBaseURL, cfg.MPAccessToken)

	// Repos & services
	catalogRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	engine := &checkout.Service{
		Store:      &checkout.PGStore{DB: db},
		Gateway:    gateway,
		Log:        logger,
		Currency:   cfg.Currency,
		Descriptor: cfg.StatementDescriptor,
		BaseURL:    cfg.PublicBaseURL,
	}

	// Router & handlers
	router := httpx.NewRouter(logger)
	(&httpx.ProductsHandler{Repo: catalogRepo, Log: logger}).Register(router)
	(&httpx.OrdersHandler{
		Repo:     orderRepo,
		Checkout: engine,
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Log:      logger,
	}).Register(router)
	httpx.RegisterPages(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
