package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/clock"
	"github.com/YelzhanWeb/atelier/internal/adapter/kafka"
	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/adapter/memory"
	"github.com/YelzhanWeb/atelier/internal/adapter/pebble"
	"github.com/YelzhanWeb/atelier/internal/adapter/postgres"
	"github.com/YelzhanWeb/atelier/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/atelier/internal/adapter/ws"
	"github.com/YelzhanWeb/atelier/internal/app/alert"
	"github.com/YelzhanWeb/atelier/internal/app/audio"
	"github.com/YelzhanWeb/atelier/internal/app/checkout"
	"github.com/YelzhanWeb/atelier/internal/app/documents"
	"github.com/YelzhanWeb/atelier/internal/app/fulfillment"
	"github.com/YelzhanWeb/atelier/internal/app/realtime"
	"github.com/YelzhanWeb/atelier/internal/config"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"

	amqpAdapter "github.com/YelzhanWeb/atelier/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/atelier/internal/adapter/http"
)

// backend is the live document store: repositories, change feed and identity.
type backend struct {
	repos     documents.Repositories
	publisher interfaces.ChangePublisher
	feed      interfaces.ChangeFeed
	identity  interfaces.IdentityProvider
	closers   []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: storefront, dashboard, migrate")
	port := flag.Int("port", 3000, "HTTP port")
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	storeKind := flag.String("store", "postgres", "Document store: postgres or memory")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lgr := logger.New(*mode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *mode == "migrate" {
		runMigrate(ctx, cfg, lgr)
		return
	}

	be, err := openBackend(ctx, cfg, *storeKind, lgr)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", *storeKind, err)
	}
	defer be.close()

	var changelog interfaces.OrderChangelog = kafka.Nop{}
	if cfg.Kafka.Brokers != "" {
		kc := kafka.NewChangelog(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kc.Close()
		changelog = kc
		lgr.Info("kafka_enabled", "Order changelog enabled", "startup", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		})
	}

	reg := metrics.NewRegistry()
	docs := documents.NewService(be.repos, be.publisher, changelog, reg, lgr)
	store := realtime.NewStore(realtime.Sources{
		Products:  be.repos.Products,
		Suppliers: be.repos.Suppliers,
		Orders:    be.repos.Orders,
		Inventory: be.repos.Inventory,
		Settings:  be.repos.Settings,
	}, be.feed, be.identity, docs, cfg.Settings, reg, lgr)

	var (
		handler  http.Handler
		shutdown []func()
	)
	switch *mode {
	case "storefront":
		handler = storefront(ctx, cfg, store, docs, reg, lgr)

	case "dashboard":
		h, closeFn, err := dashboard(cfg, store, docs, reg, lgr)
		if err != nil {
			log.Fatalf("Failed to start dashboard: %v", err)
		}
		handler = h
		shutdown = append(shutdown, closeFn)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	// Listeners are registered; the first snapshot sets the alert baselines.
	store.Start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      httpAdapter.Wrap(handler, lgr),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	lgr.Info("service_started", fmt.Sprintf("%s started on port %d", *mode, *port), "startup", map[string]interface{}{
		"port":  *port,
		"store": *storeKind,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down "+*mode, "shutdown", nil)

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}

	cancel()
	store.Close()
	for _, fn := range shutdown {
		fn()
	}
	lgr.Info("shutdown_complete", "Stopped", "shutdown", nil)
}

func runMigrate(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	lgr.Info("migration_applied", "Schema is up to date", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
}

func openBackend(ctx context.Context, cfg *config.Config, kind string, lgr logger.Logger) (*backend, error) {
	switch kind {
	case "memory":
		mem := memory.NewStore()
		bus := memory.NewBus()
		lgr.Warn("memory_store", "Using the in-memory store; data is lost on exit", "startup", nil, nil)
		return &backend{
			repos: documents.Repositories{
				Products:  mem.Products(),
				Suppliers: mem.Suppliers(),
				Orders:    mem.Orders(),
				Inventory: mem.Inventory(),
				Settings:  mem.Settings(),
			},
			publisher: bus,
			feed:      bus,
			identity:  postgres.NewIdentityProvider(mem.Sessions(), cfg.Identity.Enabled),
		}, nil

	case "postgres":
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			db.Close()
			return nil, err
		}
		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})

		return &backend{
			repos: documents.Repositories{
				Products:  postgres.NewProductRepository(db),
				Suppliers: postgres.NewSupplierRepository(db),
				Orders:    postgres.NewOrderRepository(db),
				Inventory: postgres.NewInventoryRepository(db),
				Settings:  postgres.NewSettingsRepository(db),
			},
			publisher: rabbitmq.NewPublisher(mqConn),
			feed:      amqpAdapter.NewChangeFeed(rabbitmq.NewConsumer(mqConn, lgr), lgr),
			identity:  postgres.NewIdentityProvider(postgres.NewSessionRepository(db), cfg.Identity.Enabled),
			closers:   []func(){db.Close, func() { mqConn.Close() }},
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", kind)
}

func storefront(ctx context.Context, cfg *config.Config, store *realtime.Store, docs *documents.Service, reg *metrics.Registry, lgr logger.Logger) http.Handler {
	sessions := checkout.NewRegistry(func() *checkout.Machine {
		return checkout.NewMachine(docs, clock.Real{}, cfg.Checkout.SuccessDismiss, reg, lgr)
	}, cfg.Checkout.SessionTTL)
	go sessions.Run(ctx)

	mux := httpAdapter.Storefront{
		Catalog:  httpAdapter.NewCatalogHandler(store, docs, lgr),
		Checkout: httpAdapter.NewCheckoutHandler(store, sessions, lgr),
	}.Routes()
	mux.Handle("GET /metrics", reg.Handler())
	return mux
}

func dashboard(cfg *config.Config, store *realtime.Store, docs *documents.Service, reg *metrics.Registry, lgr logger.Logger) (http.Handler, func(), error) {
	prefs, err := pebble.Open(cfg.Pebble.Dir)
	if err != nil {
		return nil, nil, err
	}

	hub := ws.NewHub(lgr)
	engine := alert.NewEngine(clock.Real{}, alert.Display{
		Order: cfg.Alerts.OrderDisplay,
		Stock: cfg.Alerts.StockDisplay,
	}, func() string { return store.Settings.Current().Currency }, reg, lgr, hub)

	sound := audio.NewSignal(func() (audio.Context, error) {
		return audio.NewClockContext(hub), nil
	}, prefs, clock.Real{}, engine, cfg.Alerts.ConfirmDisplay, reg, lgr)
	engine.SetCues(sound)

	store.Orders.Listen(engine.ObserveOrders)
	store.Inventory.Listen(engine.ObserveInventory)

	transitions := fulfillment.NewService(store, docs, reg, lgr)

	mux := httpAdapter.Dashboard{
		Catalog: httpAdapter.NewCatalogHandler(store, docs, lgr),
		Orders:  httpAdapter.NewOrderHandler(store, transitions, lgr),
		Alerts:  httpAdapter.NewAlertHandler(engine, sound, lgr),
		Live:    hub,
		Metrics: reg.Handler(),
	}.Routes()

	closeFn := func() {
		hub.Close()
		if err := prefs.Close(); err != nil {
			lgr.Warn("preferences_close_failed", "Failed to close preference store", "shutdown", nil, err)
		}
	}
	return mux, closeFn, nil
}
